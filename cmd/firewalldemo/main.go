// Command firewalldemo is a reference harness that plays the role of the
// host around the firewall module: it loads a YAML rules/vault/sanitizer
// configuration, builds a Firewall, and replays newline-delimited JSON
// tool-call records through it.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"agentfirewall/internal/firewall"
	"agentfirewall/internal/logging"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "firewalldemo",
		Short: "Replay tool-call records through the agent firewall",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "firewall.yaml", "path to the firewall YAML configuration")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newWatchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newCheckCmd() *cobra.Command {
	var recordFlag string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Replay one record from --record or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			logger := logging.Default("firewalldemo")
			fw, err := buildFirewall(cfg, logger)
			if err != nil {
				return err
			}

			var line []byte
			if recordFlag != "" {
				line = []byte(recordFlag)
			} else {
				scanner := bufio.NewScanner(os.Stdin)
				if !scanner.Scan() {
					return fmt.Errorf("no record supplied on stdin")
				}
				line = scanner.Bytes()
			}

			r, err := parseRecord(line)
			if err != nil {
				return err
			}
			out, err := replay(fw, r)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	cmd.Flags().StringVar(&recordFlag, "record", "", "a single JSON record (reads stdin if omitted)")
	return cmd
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Replay newline-delimited records from stdin, hot-reloading config on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Default("firewalldemo")

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			fw, err := buildFirewall(cfg, logger)
			if err != nil {
				return err
			}

			var current atomic.Pointer[firewall.Firewall]
			current.Store(fw)

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("starting config watcher: %w", err)
			}
			defer watcher.Close()
			if err := watcher.Add(configPath); err != nil {
				return fmt.Errorf("watching %s: %w", configPath, err)
			}

			go func() {
				for {
					select {
					case event, ok := <-watcher.Events:
						if !ok {
							return
						}
						if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
							continue
						}
						newCfg, err := loadConfig(configPath)
						if err != nil {
							logger.Printf("config reload failed, keeping previous firewall: %v", err)
							continue
						}
						newFW, err := buildFirewall(newCfg, logger)
						if err != nil {
							logger.Printf("config reload failed, keeping previous firewall: %v", err)
							continue
						}
						current.Store(newFW)
						logger.Printf("config reloaded from %s", configPath)
					case err, ok := <-watcher.Errors:
						if !ok {
							return
						}
						logger.Printf("config watcher error: %v", err)
					}
				}
			}()

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				r, err := parseRecord(line)
				if err != nil {
					logger.Printf("skipping malformed record: %v", err)
					continue
				}
				out, err := replay(current.Load(), r)
				if err != nil {
					logger.Printf("skipping record: %v", err)
					continue
				}
				if err := printJSON(out); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}
