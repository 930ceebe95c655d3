//    Copyright 2017 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/binkynet/PinWorker/pkg/config"
	"github.com/binkynet/PinWorker/pkg/environment"
	"github.com/binkynet/PinWorker/pkg/logging"
	"github.com/binkynet/PinWorker/pkg/mqtt"
	"github.com/binkynet/PinWorker/pkg/protocol"
	"github.com/binkynet/PinWorker/pkg/server"
	"github.com/binkynet/PinWorker/pkg/service"
	"github.com/binkynet/PinWorker/pkg/service/diag"
	"github.com/binkynet/PinWorker/pkg/ui"
)

const (
	projectName = "BinkyNet Pin Worker"
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

func main() {
	var configPath string
	var levelFlag string
	var device string
	var baudRate int
	var grammarName string
	var nak bool
	var idleFlush bool
	var bridgeType string
	var serverHost string
	var httpPort int
	var sshPort int

	pflag.StringVarP(&configPath, "config", "c", "", "Path of the YAML configuration file")
	pflag.StringVarP(&levelFlag, "level", "l", "info", "Set log level")
	pflag.StringVarP(&device, "device", "d", config.DefaultDevice, "Serial device to listen on")
	pflag.IntVar(&baudRate, "baud", 115200, "Baud rate of the serial device")
	pflag.StringVar(&grammarName, "grammar", protocol.GrammarCurrent, "Message grammar (current|legacy)")
	pflag.BoolVar(&nak, "nak", false, "Answer rejected commands with a NAK line")
	pflag.BoolVar(&idleFlush, "idle-flush", false, "Take unterminated data followed by silence as a line")
	pflag.StringVarP(&bridgeType, "bridge", "b", environment.BridgeAuto, "Type of bridge to use (auto|rpi|sysfs|virtual)")
	pflag.StringVar(&serverHost, "host", "0.0.0.0", "Host address the HTTP & SSH servers will listen on")
	pflag.IntVar(&httpPort, "http-port", config.DefaultHTTPPort, "Port the HTTP server will listen on")
	pflag.IntVar(&sshPort, "ssh-port", 0, "Port the SSH status server will listen on (0 disables it)")
	pflag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		Exitf("Failed to load configuration: %v\n", err)
	}
	// Explicit flags override the configuration file
	flags := pflag.CommandLine
	if flags.Changed("level") || cfg.Log.Level == "" {
		cfg.Log.Level = levelFlag
	}
	if flags.Changed("device") {
		cfg.Serial.Device = device
	}
	if flags.Changed("baud") {
		cfg.Serial.BaudRate = baudRate
	}
	if flags.Changed("grammar") {
		cfg.Protocol.Grammar = grammarName
	}
	if flags.Changed("nak") {
		cfg.Protocol.Nak = nak
	}
	if flags.Changed("idle-flush") {
		cfg.Serial.IdleFlush = idleFlush
	}
	if flags.Changed("bridge") {
		cfg.Bridge.Type = bridgeType
	}
	if flags.Changed("host") {
		cfg.HTTP.Host = serverHost
	}
	if flags.Changed("http-port") {
		cfg.HTTP.Port = httpPort
	}
	if flags.Changed("ssh-port") {
		cfg.SSH.Enabled = sshPort != 0
		cfg.SSH.Port = sshPort
	}
	if err := cfg.Validate(); err != nil {
		Exitf("Invalid configuration: %v\n", err)
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())

	// Prepare logging
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		Exitf("Invalid log level '%s': %v\n", cfg.Log.Level, err)
	}
	fileWriter := logging.NewFileWriter(cfg.Log.FileConfig)
	if fileWriter != nil {
		defer fileWriter.Close()
	}
	mqttWriter := logging.NewMQTTWriter(ctx, level)
	var fileOut io.Writer
	if fileWriter != nil {
		fileOut = fileWriter
	}
	logOut := logging.NewMultiWriter(zerolog.ConsoleWriter{Out: os.Stderr}, fileOut, mqttWriter)
	logger := zerolog.New(logOut).Level(level).With().Timestamp().Logger()

	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	// Prepare MQTT
	var broker mqtt.Service
	if cfg.MQTT.Enabled() {
		broker, err = mqtt.NewService(logger, cfg.MQTT)
		if err != nil {
			logger.Warn().Err(err).Str("broker", cfg.MQTT.Broker).Msg("Failed to connect to MQTT broker, continuing without")
			broker = nil
		} else {
			defer broker.Close()
			if cfg.Log.MQTT {
				mqttWriter.SetDestination(cfg.MQTT.Topic("logs"), broker)
			}
		}
	}

	// Prepare hardware
	br, err := environment.NewBridge(logger, cfg.Bridge.Type, cfg.Bridge.HardwareConfig())
	if err != nil {
		Exitf("Failed to initialize bridge: %v\n", err)
	}

	grammar, err := protocol.NewGrammar(cfg.Protocol.Grammar)
	if err != nil {
		Exitf("%v\n", err)
	}
	reporter := diag.NewReporter(logger, cfg.Protocol.HistorySize)
	svc, err := service.NewService(service.Config{
		ProgramVersion: projectVersion,
		Serial:         cfg.Serial,
		Grammar:        grammar,
		Nak:            cfg.Protocol.Nak,
		ADCUnits:       cfg.Bridge.ADCUnits,
		MQTT:           cfg.MQTT,
	}, service.Dependencies{
		Logger:   logger,
		Bridge:   br,
		Reporter: reporter,
		Broker:   broker,
	})
	if err != nil {
		Exitf("Failed to initialize Service: %v\n", err)
	}

	srvCfg := server.Config{
		Host:        cfg.HTTP.Host,
		HTTPPort:    cfg.HTTP.Port,
		HostKeyPath: cfg.SSH.HostKeyPath,
	}
	if cfg.SSH.Enabled {
		srvCfg.SSHPort = cfg.SSH.Port
	}
	statusUI := ui.New(ui.Info{
		Version: projectVersion,
		Device:  cfg.Serial.Device,
		Grammar: grammar.Name(),
		Bridge:  environment.Describe(br),
	}, reporter)
	httpServer, err := server.New(srvCfg, logger, statusUI, svc)
	if err != nil {
		Exitf("Failed to initialize Server: %v\n", err)
	}

	fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error { return httpServer.Run(ctx) })
	if err := g.Wait(); err != nil {
		Exitf("Service run failed: %#v", err)
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
