// Command dcpterm is an interactive REPL for sending ad-hoc DCP
// command messages and printing the replies, the Go equivalent of
// original_source's dcpterm tool reduced to what the in-scope payload
// parsers (dcpclient.CommandParser, dcpclient.ReplyParser) can drive.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/device-control-protocol/dcpclient-go"
	"github.com/device-control-protocol/dcpclient-go/internal/dcplog"
	"github.com/device-control-protocol/dcpclient-go/pkg/dcpconfig"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagServer string
	flagPort   uint16
	flagDevice string
)

var rootCmd = &cobra.Command{
	Use:           "dcpterm",
	Short:         "Interactive REPL for sending DCP commands",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTerm,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.Flags().StringVarP(&flagServer, "server", "s", "", "Hub hostname (overrides config)")
	rootCmd.Flags().Uint16VarP(&flagPort, "port", "p", 0, "Hub port (overrides config)")
	rootCmd.Flags().StringVarP(&flagDevice, "device", "n", "", "Device name to register as (overrides config)")
}

// commandLine is "<destination> <verb> <identifier> [args...]".
func parseCommandLine(line string) (destination string, payload string, err error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", "", errors.New("usage: <destination> <set|get|def|undef> <identifier> [args...]")
	}
	destination = fields[0]
	for i, f := range fields[1:] {
		fields[i+1] = string(dcpclient.PercentEncodeSpaces([]byte(f)))
	}
	payload = strings.Join(fields[1:], " ")
	return destination, payload, nil
}

func runTerm(cmd *cobra.Command, args []string) error {
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

	conn := dcpclient.NewConnection(nil)
	defer conn.Close()

	conn.ConnectToServer(cfg.Server.Host, cfg.Server.Port, []byte(cfg.DeviceName))
	if !conn.WaitForConnected(5000) {
		return fmt.Errorf("could not connect to %s", conn.ServerAddr())
	}
	fmt.Printf("connected to %s as %q\n", conn.ServerAddr(), cfg.DeviceName)

	var replyParser dcpclient.ReplyParser
	for {
		prompt := promptui.Prompt{Label: "dcp"}
		line, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.TrimSpace(line) == "quit" || strings.TrimSpace(line) == "exit" {
			return nil
		}

		destination, payload, err := parseCommandLine(line)
		if err != nil {
			fmt.Println(err)
			continue
		}

		sent := conn.SendMessage([]byte(destination), []byte(payload), 0)
		if !conn.WaitForReadyRead(5000) {
			fmt.Println("timed out waiting for reply")
			continue
		}

		reply := conn.ReadMessage()
		if reply.IsNull() {
			fmt.Println("no reply")
			continue
		}

		if replyParser.Parse(reply) {
			status := dcpclient.AckErrorString(replyParser.ErrorCode())
			if replyParser.IsAckReply() {
				fmt.Printf("ACK (snr %d): %s\n", sent.Snr(), status)
			} else {
				fmt.Printf("reply (snr %d) [%s]: %s\n", sent.Snr(), status, strings.Join(replyParser.Arguments(), " "))
			}
		} else {
			fmt.Println(reply.String())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
