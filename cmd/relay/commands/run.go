package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicnetworks/relay/src/relay"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts a relay node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runRelay,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runRelay(cmd *cobra.Command, args []string) error {
	engine := relay.NewRelay(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	//Prepare sigCh to relay SIGINT and SIGTERM system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		_config.Logger().Info("Shutting down")
		engine.Shutdown()
	}()

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Also write JSON log entries to this file")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")

	// Network
	cmd.Flags().StringP("listen", "l", _config.BindAddr, "Listen IP:Port for relay node")
	cmd.Flags().StringP("advertise", "a", _config.AdvertiseAddr, "Advertise IP:Port for relay node")
	cmd.Flags().DurationP("timeout", "t", _config.TCPTimeout, "TCP Timeout")
	cmd.Flags().Duration("resend-timeout", _config.ResendTimeout, "Timeout of resend requests")
	cmd.Flags().Int("max-pool", _config.MaxPool, "Connection pool size max")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.NoService, "Disable HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Dabatabase directory")

	// Payloads
	cmd.Flags().String("wire", _config.WireGeneration, "Payload wire generation: legacy, v2, v3")
	cmd.Flags().Int("publish-workers", _config.PublishWorkers, "Max number of concurrent deliveries per transaction")

	// Resend and recovery
	cmd.Flags().Int("resend-page-size", _config.ResendPageSize, "Number of transactions read at a time while serving a resend")
	cmd.Flags().Int("resend-batch-size", _config.ResendBatchSize, "Batch size requested from peers during recovery")
	cmd.Flags().Bool("skip-unresolvable", _config.SkipUnresolvable, "Skip, rather than abort on, unreadable transactions during a resend")
	cmd.Flags().Bool("recover", _config.Recover, "Rebuild the transaction store from peers on startup")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	configFile, err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	if configFile != "" {
		_config.Logger().Debugf("Using config file: %s", configFile)
	} else {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	}

	logFields := logrus.Fields{
		"DataDir":          _config.DataDir,
		"BindAddr":         _config.BindAddr,
		"AdvertiseAddr":    _config.AdvertiseAddr,
		"ServiceAddr":      _config.ServiceAddr,
		"NoService":        _config.NoService,
		"MaxPool":          _config.MaxPool,
		"Store":            _config.Store,
		"LogLevel":         _config.LogLevel,
		"LogFile":          _config.LogFile,
		"Moniker":          _config.Moniker,
		"TCPTimeout":       _config.TCPTimeout,
		"ResendTimeout":    _config.ResendTimeout,
		"WireGeneration":   _config.WireGeneration,
		"PublishWorkers":   _config.PublishWorkers,
		"ResendPageSize":   _config.ResendPageSize,
		"ResendBatchSize":  _config.ResendBatchSize,
		"SkipUnresolvable": _config.SkipUnresolvable,
		"Recover":          _config.Recover,
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper. It returns the path of the
// config file that was used, if any.
func bindFlagsLoadViper(cmd *cobra.Command) (string, error) {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return "", err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return "", err
	}

	// look for config file in [datadir]/relay.toml (.json, .yaml also work)
	viper.SetConfigName("relay")         // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir) // search root directory

	configFile := ""

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		configFile = viper.ConfigFileUsed()
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return "", err
	}

	// second unmarshal to read from config file
	return configFile, viper.Unmarshal(_config)
}
