// Command dcpsend sends one message to a DCP hub and exits, the Go
// equivalent of original_source's dcpsend.cpp tool reduced to
// exercising the dcpclient library.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/device-control-protocol/dcpclient-go"
	"github.com/device-control-protocol/dcpclient-go/internal/dcplog"
	"github.com/device-control-protocol/dcpclient-go/pkg/dcpconfig"
	"github.com/spf13/cobra"
)

var (
	flagConfig     string
	flagServer     string
	flagPort       uint16
	flagDevice     string
	flagDest       string
	flagData       string
	flagConnectMS  int
	flagMinOnlineM int
)

var rootCmd = &cobra.Command{
	Use:   "dcpsend <destination> <data...>",
	Short: "Send one DCP message and exit",
	Long: `dcpsend connects to a DCP hub, registers as a device, sends a single
message to the given destination, waits for the write to be flushed
(up to --connect-timeout-ms), stays connected for --min-online-ms, and
exits.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSend,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.Flags().StringVarP(&flagServer, "server", "s", "", "Hub hostname (overrides config)")
	rootCmd.Flags().Uint16VarP(&flagPort, "port", "p", 0, "Hub port (overrides config)")
	rootCmd.Flags().StringVarP(&flagDevice, "device", "n", "", "Device name to register as (overrides config)")
	rootCmd.Flags().StringVarP(&flagData, "data", "d", "", "Message data (joined args used if omitted)")
	rootCmd.Flags().IntVar(&flagConnectMS, "connect-timeout-ms", 5000, "Time to wait for the connection to come up")
	rootCmd.Flags().IntVar(&flagMinOnlineM, "min-online-ms", 2000, "Time to keep the connection open after sending")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := dcpconfig.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagServer != "" {
		cfg.Server.Host = flagServer
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}
	if flagDevice != "" {
		cfg.DeviceName = flagDevice
	}
	_ = dcplog.Init(dcplog.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output})

	destination := args[0]
	payload := flagData
	if payload == "" {
		for i, a := range args[1:] {
			if i > 0 {
				payload += " "
			}
			payload += a
		}
	}

	conn := dcpclient.NewConnection(nil)
	defer conn.Close()

	conn.ConnectToServer(cfg.Server.Host, cfg.Server.Port, []byte(cfg.DeviceName))
	if !conn.WaitForConnected(flagConnectMS) {
		return fmt.Errorf("could not connect to %s within %dms", conn.ServerAddr(), flagConnectMS)
	}

	sent := conn.SendMessage([]byte(destination), []byte(payload), 0)
	fmt.Println(sent.String())

	conn.WaitForMessagesWritten(flagConnectMS)
	time.Sleep(time.Duration(flagMinOnlineM) * time.Millisecond)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
