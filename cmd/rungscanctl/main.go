package main

import (
	"encoding/json"
	"fmt"
	"os"

	"rungscan/cmd/rungscanctl/ui"
	"rungscan/config"
	"rungscan/internal/engine"
	"rungscan/internal/program"
	"rungscan/internal/rdefaults"
	"rungscan/internal/transport/sock"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorMsg("%v", err))
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var socketFlag string

	root := &cobra.Command{
		Use:           "rungscanctl",
		Short:         "Control a running rungscand scan engine",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&socketFlag, "socket", "", "Daemon control-socket path (overrides config)")

	root.AddCommand(statusCmd(&socketFlag))
	root.AddCommand(startCmd(&socketFlag))
	root.AddCommand(stopCmd(&socketFlag))
	root.AddCommand(resetCmd(&socketFlag))
	root.AddCommand(loadCmd(&socketFlag))
	root.AddCommand(writeCmd(&socketFlag))
	root.AddCommand(contextCmd())
	return root
}

// resolveSocket picks the control-socket path: --socket flag, then
// RUNGSCAN_SOCKET, then the config file's current-context, then the
// platform default.
func resolveSocket(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv("RUNGSCAN_SOCKET"); env != "" {
		return env, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if _, ctx, ok := cfg.Current(); ok && ctx.Target() != "" {
		return ctx.Target(), nil
	}
	return rdefaults.SocketPath(), nil
}

func dial(socketFlag string) (*sock.Client, error) {
	path, err := resolveSocket(socketFlag)
	if err != nil {
		return nil, err
	}
	c, err := sock.Dial(path)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", path, err)
	}
	return c, nil
}

// decodeResult re-marshals a generic Response.Result into dst.
func decodeResult(result interface{}, dst interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func startCmd(socketFlag *string) *cobra.Command {
	cmd := &cobra.Command{Use: "start", Short: "Transition the engine to RUN", Args: cobra.NoArgs}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		c, err := dial(*socketFlag)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.Call(sock.Request{Cmd: sock.CmdStart})
		if err != nil {
			return err
		}
		if !resp.OK {
			return fmt.Errorf("%s: %s", resp.Code, resp.Error)
		}
		fmt.Println(ui.SuccessMsg("engine running"))
		return nil
	}
	return cmd
}

func stopCmd(socketFlag *string) *cobra.Command {
	cmd := &cobra.Command{Use: "stop", Short: "Transition the engine to STOP", Args: cobra.NoArgs}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		c, err := dial(*socketFlag)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.Call(sock.Request{Cmd: sock.CmdStop})
		if err != nil {
			return err
		}
		if !resp.OK {
			return fmt.Errorf("%s: %s", resp.Code, resp.Error)
		}
		fmt.Println(ui.SuccessMsg("engine stopped"))
		return nil
	}
	return cmd
}

func resetCmd(socketFlag *string) *cobra.Command {
	cmd := &cobra.Command{Use: "reset", Short: "Clear all memory, timers, and counters", Args: cobra.NoArgs}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		c, err := dial(*socketFlag)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.Call(sock.Request{Cmd: sock.CmdReset})
		if err != nil {
			return err
		}
		if !resp.OK {
			return fmt.Errorf("%s: %s", resp.Code, resp.Error)
		}
		fmt.Println(ui.SuccessMsg("engine reset"))
		return nil
	}
	return cmd
}

func loadCmd(socketFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file.json>",
		Short: "Load a program document from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var doc program.Document
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			c, err := dial(*socketFlag)
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.Call(sock.Request{Cmd: sock.CmdLoad, Document: &doc})
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("%s: %s", resp.Code, resp.Error)
			}
			fmt.Println(ui.SuccessMsg("loaded %d node(s) from %s", len(doc.Nodes), args[0]))
			return nil
		},
	}
}

func writeCmd(socketFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "write <addr> <true|false>",
		Short: "Force a bit address (e.g. I0 or D4.2)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value bool
			switch args[1] {
			case "true", "1", "on":
				value = true
			case "false", "0", "off":
				value = false
			default:
				return fmt.Errorf("invalid value %q, want true/false", args[1])
			}

			c, err := dial(*socketFlag)
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.Call(sock.Request{Cmd: sock.CmdWrite, Addr: args[0], Value: value})
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("%s: %s", resp.Code, resp.Error)
			}
			fmt.Println(ui.SuccessMsg("%s = %s", args[0], ui.Bool(value)))
			return nil
		},
	}
}

func statusCmd(socketFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show engine phase and memory snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(*socketFlag)
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.Call(sock.Request{Cmd: sock.CmdSnapshot})
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("%s: %s", resp.Code, resp.Error)
			}

			var snap engine.Snapshot
			if err := decodeResult(resp.Result, &snap); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}

			fmt.Print(ui.KeyValues("  ",
				ui.KV("Phase", snap.Phase.String()),
				ui.KV("M set", fmt.Sprint(snap.M)),
				ui.KV("I set", fmt.Sprint(snap.I)),
				ui.KV("Q set", fmt.Sprint(snap.Q)),
				ui.KV("Timers", fmt.Sprint(len(snap.Timers))),
				ui.KV("Counters", fmt.Sprint(len(snap.Counters))),
			))

			if len(snap.Timers) > 0 {
				rows := make([][]string, 0, len(snap.Timers))
				for _, t := range snap.Timers {
					rows = append(rows, []string{t.Name, t.Remaining.String(), t.Preset.String(), ui.Bool(t.Q)})
				}
				fmt.Println(ui.Table([]string{"timer", "remaining", "preset", "Q"}, rows))
			}
			if len(snap.Counters) > 0 {
				rows := make([][]string, 0, len(snap.Counters))
				for _, cn := range snap.Counters {
					rows = append(rows, []string{cn.Name, fmt.Sprint(cn.Current), fmt.Sprint(cn.Preset), ui.Bool(cn.Q)})
				}
				fmt.Println(ui.Table([]string{"counter", "current", "preset", "Q"}, rows))
			}
			return nil
		},
	}
}

func contextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage named daemon connection contexts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "use <name>",
		Short: "Set the current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Use(args[0]); err != nil {
				return err
			}
			return cfg.Save()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <socket-path>",
		Short: "Add or update a named context",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.Set(args[0], config.Context{Socket: args[1]})
			return cfg.Save()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			current, _, _ := cfg.Current()
			rows := make([][]string, 0, len(cfg.Contexts))
			for name, c := range cfg.Contexts {
				mark := ""
				if name == current {
					mark = "*"
				}
				rows = append(rows, []string{mark, name, c.Target()})
			}
			fmt.Println(ui.Table([]string{"", "name", "target"}, rows))
			return nil
		},
	})
	return cmd
}
