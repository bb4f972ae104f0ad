// Command dcplisten connects to a DCP hub and prints every message it
// receives as a live-updating table, the Go equivalent of
// original_source's dcpdump tool.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/device-control-protocol/dcpclient-go"
	"github.com/device-control-protocol/dcpclient-go/internal/dcplog"
	"github.com/device-control-protocol/dcpclient-go/internal/dcpout"
	"github.com/device-control-protocol/dcpclient-go/pkg/dcpconfig"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagServer string
	flagPort   uint16
	flagDevice string
)

var rootCmd = &cobra.Command{
	Use:           "dcplisten",
	Short:         "Connect to a DCP hub and print every message received",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runListen,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.Flags().StringVarP(&flagServer, "server", "s", "", "Hub hostname (overrides config)")
	rootCmd.Flags().Uint16VarP(&flagPort, "port", "p", 0, "Hub port (overrides config)")
	rootCmd.Flags().StringVarP(&flagDevice, "device", "n", "", "Device name to register as (overrides config)")
}

// listenHandler renders every received message into a live table. The
// table is reprinted in full on each message, matching the original
// dcpdump tool's append-only console output rather than a
// cursor-repositioning TUI.
type listenHandler struct {
	dcpclient.NoopHandler
	table *dcpout.MessageTable
}

func (h *listenHandler) OnMessageReceived(c *dcpclient.Connection) {
	for c.MessagesAvailable() > 0 {
		msg := c.ReadMessage()
		if msg.IsNull() {
			break
		}
		h.table.AddRow(
			flagLetters(msg),
			strconv.FormatUint(uint64(msg.Snr()), 10),
			string(msg.Source()),
			string(msg.Destination()),
			strconv.Itoa(len(msg.Data())),
			string(msg.Data()),
		)
		_ = dcpout.PrintTable(os.Stdout, h.table)
	}
}

func (h *listenHandler) OnStateChanged(c *dcpclient.Connection, s dcpclient.State) {
	dcplog.Info("state changed", "state", s.String())
}

func (h *listenHandler) OnError(c *dcpclient.Connection, err *dcpclient.Error) {
	dcplog.Warn("connection error", dcplog.Err(err))
}

func flagLetters(msg dcpclient.Message) string {
	letter := func(set bool, c byte) byte {
		if set {
			return c
		}
		return '-'
	}
	b := []byte{
		letter(msg.Flags()&dcpclient.PaceFlag != 0, 'p'),
		letter(msg.Flags()&dcpclient.GrecoFlag != 0, 'g'),
		letter(msg.IsUrgent(), 'u'),
		letter(msg.IsReply(), 'r'),
	}
	return string(b)
}

func runListen(cmd *cobra.Command, args []string) error {
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

	handler := &listenHandler{table: &dcpout.MessageTable{}}
	conn := dcpclient.NewConnection(handler)
	defer conn.Close()

	conn.SetAutoReconnect(true)
	conn.ConnectToServer(cfg.Server.Host, cfg.Server.Port, []byte(cfg.DeviceName))

	select {}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
