package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/precharge-sequencer/internal/config"
	"github.com/sweeney/precharge-sequencer/internal/contactor"
	"github.com/sweeney/precharge-sequencer/internal/metrics"
	"github.com/sweeney/precharge-sequencer/internal/mqtt"
	"github.com/sweeney/precharge-sequencer/internal/precharge"
	"github.com/sweeney/precharge-sequencer/internal/sequencer"
	"github.com/sweeney/precharge-sequencer/internal/signal"
	"github.com/sweeney/precharge-sequencer/internal/status"
	"github.com/sweeney/precharge-sequencer/internal/web"
)

func buildRunCommand() *cobra.Command {
	var heartbeat time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the precharge sequencing daemon",
		Long: `Start the daemon: sample the configured signal source, step the
safety state machine, drive the main contactor, and publish state
transitions to MQTT. Status is served over HTTP and Prometheus
metrics on a separate address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Load(configFile)
			if err != nil {
				return err
			}
			return runDaemon(p, heartbeat)
		},
	}

	cmd.Flags().DurationVar(&heartbeat, "heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")

	return cmd
}

func runDaemon(p config.Profile, heartbeat time.Duration) error {
	circuit, err := p.PrechargeConfig()
	if err != nil {
		return err
	}

	source, err := buildSource(p, circuit)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}
	defer source.Close()

	driver, shutdownDriver, err := buildDriver(p)
	if err != nil {
		return fmt.Errorf("init contactor: %w", err)
	}
	defer shutdownDriver()

	ctrl, err := sequencer.New(circuit, driver)
	if err != nil {
		return err
	}

	publisher, err := mqtt.NewRealPublisher(p.Broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:        p.PollMs,
		Broker:        p.Broker,
		HTTPAddr:      p.HTTPAddr,
		MetricsAddr:   p.MetricsAddr,
		Source:        p.Source.Kind,
		BusVoltageV:   circuit.BusVoltageV,
		CapacitanceF:  circuit.CapacitanceF,
		ResistorOhm:   circuit.ResistorOhm,
		MinPrechargeS: circuit.MinPrechargeS,
		MaxPrechargeS: circuit.MaxPrechargeS,
	})

	collector := metrics.NewCollector()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if p.HTTPAddr != "" {
		srv := web.New(p.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", p.HTTPAddr)
	}

	if p.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(p.MetricsAddr, mux); err != nil {
				log.Printf("metrics server error: %v", err)
			}
		}()
		log.Printf("metrics listening on %s", p.MetricsAddr)
	}

	log.Printf("started: source=%s poll=%dms broker=%s resistor=%.3gΩ window=[%.3gs, %.3gs]",
		p.Source.Kind, p.PollMs, p.Broker, circuit.ResistorOhm, circuit.MinPrechargeS, circuit.MaxPrechargeS)

	ticker := time.NewTicker(time.Duration(p.PollMs) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(source, ctrl, publisher, publisher, tracker, collector, heartbeat, time.Now, ticker.C, sigCh)
}

// buildSource constructs the signal source the profile selects.
func buildSource(p config.Profile, circuit precharge.Config) (signal.Source, error) {
	switch p.Source.Kind {
	case config.SourceSim:
		return signal.NewSim(circuit, nil), nil
	case config.SourceReplay:
		points, err := loadTrace(p.Source.TraceFile)
		if err != nil {
			return nil, err
		}
		return signal.NewReplay(points, time.Now()), nil
	case config.SourceSerial:
		return signal.NewSerialSource(p.Source.SerialPort, p.Source.BaudRate)
	case config.SourceGPIO:
		return signal.NewGPIOSource(p.Source.SensePin, p.Source.EstopPin, p.Source.ADCPath, p.Source.ADCScale)
	}
	return nil, fmt.Errorf("unknown source kind %q", p.Source.Kind)
}

// buildDriver selects the contactor driver. Hardware is only wired up
// for the gpio source; every other source runs against the no-op
// driver so benches never energize a coil by accident.
func buildDriver(p config.Profile) (sequencer.Driver, func(), error) {
	if p.Source.Kind != config.SourceGPIO {
		return nil, func() {}, nil
	}
	g, err := contactor.NewGPIO(p.MainPin)
	if err != nil {
		return nil, nil, err
	}
	return g, func() {
		if err := g.Shutdown(); err != nil {
			log.Printf("contactor shutdown: %v", err)
		}
	}, nil
}

func loadTrace(path string) ([]signal.TracePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	return signal.ParseTrace(f)
}

// runLoop is the daemon core: one iteration per tick, shutdown on
// signal. The attempt timer derives from reading timestamps so replayed
// traces sequence identically to live runs.
func runLoop(source signal.Source, ctrl *sequencer.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, collector *metrics.Collector, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	lastHeartbeat := startTime

	var (
		prechargeStart time.Time
		attemptTimer   float64
	)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			reading, err := source.Sample()
			if err != nil {
				log.Printf("sample error: %v", err)
				continue
			}

			if ctrl.State() == sequencer.StatePrecharging {
				attemptTimer = reading.At.Sub(prechargeStart).Seconds()
			}

			state := ctrl.Step(sequencer.Signals{
				ContactSense:  reading.ContactSense,
				EmergencyOpen: reading.EmergencyOpen,
				Timer:         attemptTimer,
				CapVoltage:    reading.CapVoltage,
			})

			if ev, ok := ctrl.LastEvent(); ok {
				if state == sequencer.StatePrecharging {
					prechargeStart = reading.At
					attemptTimer = 0
				}
				log.Printf("event: %s %s → %s (%.3fs, %.2fV)",
					ev.Type, ev.From, ev.To, ev.Signals.Timer, ev.Signals.CapVoltage)
				if collector != nil {
					collector.RecordTransition(ev)
				}
				if err := publisher.Publish(mqtt.Transition{Timestamp: t, Event: ev}); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			if collector != nil {
				collector.UpdateState(state, reading.CapVoltage, attemptTimer)
			}
			if tracker != nil {
				tracker.Update(state, reading.CapVoltage, attemptTimer, ctrl.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				counts := ctrl.Counts()
				log.Printf("heartbeat: uptime=%v closes=%d opens=%d faults=%d aborts=%d",
					t.Sub(startTime), counts.MainCloses, counts.MainOpens, counts.Faults, counts.Aborts)

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func buildReplayCommand() *cobra.Command {
	var trace string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Step the sequencer through a recorded trace",
		Long: `Step the state machine through a CSV trace of (t, sense, estop,
vcap) rows without sleeping between samples. Transitions print to
stdout as the same JSON the daemon would publish; the exit summary
reports the transition counts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("trace") {
				p.Source.TraceFile = trace
			}
			if p.Source.TraceFile == "" {
				return fmt.Errorf("replay needs a trace file (--trace or the profile's source.trace_file)")
			}
			return runReplay(cmd, p)
		},
	}

	cmd.Flags().StringVarP(&trace, "trace", "t", "", "trace CSV path")

	return cmd
}

func runReplay(cmd *cobra.Command, p config.Profile) error {
	circuit, err := p.PrechargeConfig()
	if err != nil {
		return err
	}
	points, err := loadTrace(p.Source.TraceFile)
	if err != nil {
		return err
	}

	ctrl, err := sequencer.New(circuit, nil)
	if err != nil {
		return err
	}

	base := time.Now()
	source := signal.NewReplay(points, base)

	var (
		prechargeStart time.Time
		attemptTimer   float64
	)
	for range points {
		reading, err := source.Sample()
		if err != nil {
			return err
		}

		if ctrl.State() == sequencer.StatePrecharging {
			attemptTimer = reading.At.Sub(prechargeStart).Seconds()
		}

		state := ctrl.Step(sequencer.Signals{
			ContactSense:  reading.ContactSense,
			EmergencyOpen: reading.EmergencyOpen,
			Timer:         attemptTimer,
			CapVoltage:    reading.CapVoltage,
		})

		if ev, ok := ctrl.LastEvent(); ok {
			if state == sequencer.StatePrecharging {
				prechargeStart = reading.At
				attemptTimer = 0
			}
			payload, err := mqtt.FormatPayload(mqtt.Transition{Timestamp: reading.At, Event: ev})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		}
	}

	counts := ctrl.Counts()
	fmt.Fprintf(cmd.OutOrStdout(), "final state %s: closes=%d opens=%d faults=%d aborts=%d\n",
		ctrl.State(), counts.MainCloses, counts.MainOpens, counts.Faults, counts.Aborts)
	if ctrl.State() == sequencer.StateFault {
		return fmt.Errorf("trace ended in FAULT after %d fault(s)", counts.Faults)
	}
	return nil
}
