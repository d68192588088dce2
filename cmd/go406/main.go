package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go406/internal/app"
	"go406/internal/output"
	"go406/internal/receiver"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := app.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "go406",
		Short: "MT-RX 406/121.5/243 MHz beacon receiver decoder",
		Long: `Decoder for the serial output of an MT-RX 406 MHz EPIRB/PLB alerting receiver.

Reads RSS (SS,...), decoded beacon (MT1) and raw frame (MT6) records from the
receiver's serial port or a capture file, verifies checksums and writes one
CSV line per record to a daily rotated log and stdout.

Example usage:
  go406 --port /dev/ttyUSB0 --baud 9600 --log-dir ./logs
  go406 --input capture.txt --verify=false`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ShowVersion {
				app.ShowVersion()
				return nil
			}

			if flags.ListPorts {
				return listPorts(cmd.OutOrStdout())
			}

			config, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}

			application := app.NewApplication(config)
			return application.Start()
		},
	}

	rootCmd.Flags().StringVarP(&flags.Port, "port", "p", "", "Serial device of the receiver (e.g. /dev/ttyUSB0)")
	rootCmd.Flags().IntVarP(&flags.BaudRate, "baud", "b", app.DefaultBaudRate, "Serial baud rate")
	rootCmd.Flags().DurationVar(&flags.ReadTimeout, "read-timeout", app.DefaultReadTimeout, "Serial read timeout")
	rootCmd.Flags().StringVarP(&flags.Input, "input", "i", "", "Replay a capture file instead of the serial port (- for stdin)")
	rootCmd.Flags().StringVarP(&flags.ConfigFile, "config", "c", "", "TOML configuration file")
	rootCmd.Flags().StringVarP(&flags.LogDir, "log-dir", "l", app.DefaultLogDir, "Log directory")
	rootCmd.Flags().BoolVarP(&flags.LogRotateUTC, "utc", "u", true, "Use UTC for log rotation")
	rootCmd.Flags().IntVar(&flags.RetainDays, "retain-days", 0, "Remove decode logs older than this many days (0 keeps all)")
	rootCmd.Flags().BoolVar(&flags.VerifyChecksums, "verify", true, "Verify MT1/MT6 checksums")
	rootCmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.Flags().BoolVar(&flags.ShowVersion, "version", false, "Show version information")
	rootCmd.Flags().BoolVar(&flags.ListPorts, "list-ports", false, "List available serial ports and exit")

	rootCmd.AddCommand(newDecodeCommand())

	return rootCmd
}

// resolveConfig layers defaults, the optional config file and the flags set
// on the command line, in that order.
func resolveConfig(cmd *cobra.Command, flags app.Config) (app.Config, error) {
	config := app.DefaultConfig()

	if flags.ConfigFile != "" {
		if err := app.LoadConfigFile(flags.ConfigFile, &config); err != nil {
			return app.Config{}, err
		}
		config.ConfigFile = flags.ConfigFile
	}

	changed := cmd.Flags().Changed
	if changed("port") {
		config.Port = flags.Port
	}
	if changed("baud") {
		config.BaudRate = flags.BaudRate
	}
	if changed("read-timeout") {
		config.ReadTimeout = flags.ReadTimeout
	}
	if changed("input") {
		config.Input = flags.Input
	}
	if changed("log-dir") {
		config.LogDir = flags.LogDir
	}
	if changed("utc") {
		config.LogRotateUTC = flags.LogRotateUTC
	}
	if changed("retain-days") {
		config.RetainDays = flags.RetainDays
	}
	if changed("verify") {
		config.VerifyChecksums = flags.VerifyChecksums
	}
	config.Verbose = flags.Verbose

	return config, nil
}

func listPorts(out io.Writer) error {
	ports, err := receiver.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(out, "No serial ports found")
		return nil
	}
	for _, port := range ports {
		fmt.Fprintln(out, port)
	}
	return nil
}

var errDecodeFailed = errors.New("one or more lines failed to decode")

func newDecodeCommand() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "decode [line...]",
		Short: "Decode records given as arguments or on stdin",
		Example: `  go406 decode 'SS,A,123' MT1001000AL400C592753572B323433212S1723756E4706
  cat capture.txt | go406 decode`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines := make([]string, 0, len(args))
			for _, arg := range args {
				lines = append(lines, strings.TrimSpace(arg))
			}
			if len(lines) == 0 {
				var err error
				lines, err = readAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			return decodeLines(lines, verify, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", true, "Verify MT1/MT6 checksums")
	return cmd
}

func readAll(r io.Reader) ([]string, error) {
	reader := receiver.NewLineReader(r)
	var lines []string
	for {
		line, err := reader.Next()
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		lines = append(lines, line)
	}
}

// decodeLines prints one CSV line per decoded record and reports failures on errOut
func decodeLines(lines []string, verify bool, out, errOut io.Writer) error {
	now := time.Now().UTC()
	failed := false

	for _, line := range lines {
		msg, verified, err := app.Decode(line, verify)
		if err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", line, err)
			failed = true
			continue
		}

		if formatted := output.Format(msg, now, verified); formatted != "" {
			fmt.Fprintln(out, formatted)
		} else {
			fmt.Fprintf(errOut, "%s: unrecognized\n", line)
		}
	}

	if failed {
		return errDecodeFailed
	}
	return nil
}
