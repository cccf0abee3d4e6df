package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/ops"
	"github.com/hpungsan/mimic/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// rt may be nil when only help or version output is needed.
func newCLIApp(rt *runtime) *cli.App {
	app := &cli.App{
		Name:    "mimic",
		Usage:   "Markov chat bot that imitates the people it has read",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(rt),
			storeCmd(rt),
			importCmd(rt),
			authorsCmd(rt),
			generateCmd(rt),
			haikuCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and Slack webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind := rt.cfg.Bind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := rt.cfg.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}
			if port <= 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port: %d", port)))
			}

			srv, events := rt.newServer(bind, port)
			if err := web.Run(srv, rt.logger, events.Wait); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// storeCmd creates the store command.
func storeCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "store",
		Usage:     "Store a message for an author (text from args or stdin)",
		ArgsUsage: "[text...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Usage: "Author ID"},
			&cli.StringFlag{Name: "ts", Usage: "Platform timestamp (optional)"},
		},
		Action: func(c *cli.Context) error {
			text, err := textInput(c, 4*ops.MaxMessageChars)
			if err != nil {
				return outputError(err)
			}

			input := ops.StoreInput{AuthorID: c.String("user"), Text: text}
			if ts := c.String("ts"); ts != "" {
				input.TS = &ts
			}

			output, err := ops.Store(c.Context, rt.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import an unzipped Slack export directory",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Export root directory"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("path")
			if path == "" && c.NArg() > 0 {
				path = c.Args().First()
			}
			if path == "" {
				return outputError(errors.NewInvalidRequest("path is required"))
			}

			output, err := ops.Import(c.Context, rt.db, ops.ImportInput{Path: path})
			if err != nil {
				return outputError(err)
			}
			if output.Imported > 0 {
				rt.models.Reset()
			}
			rt.logger.Info("import finished",
				zap.Int("files", output.Files),
				zap.Int("imported", output.Imported),
				zap.Int("errors", len(output.Errors)))
			return outputJSON(output)
		},
	}
}

// authorsCmd creates the authors command.
func authorsCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "authors",
		Usage: "List authors and their message counts",
		Action: func(c *cli.Context) error {
			output, err := ops.Authors(c.Context, rt.db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// generateCmd creates the generate command.
func generateCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate text in the style of an author",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Author ID to imitate"},
			&cli.BoolFlag{Name: "all", Usage: "Imitate every author at once"},
			&cli.StringFlag{Name: "before", Usage: "Seed words to continue from"},
			&cli.StringFlag{Name: "after", Usage: "Seed words to lead into"},
			&cli.StringFlag{Name: "author", Usage: "Haiku attribution name"},
			&cli.BoolFlag{Name: "text", Usage: "Print only the generated text"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Generate(c.Context, rt.gen, ops.GenerateInput{
				AuthorID: c.String("user"),
				All:      c.Bool("all"),
				Before:   c.String("before"),
				After:    c.String("after"),
				Author:   c.String("author"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("text") {
				_, err := fmt.Fprintln(os.Stdout, output.Text)
				return err
			}
			return outputJSON(output)
		},
	}
}

// haikuCmd creates the haiku command. It needs no database.
func haikuCmd() *cli.Command {
	return &cli.Command{
		Name:      "haiku",
		Usage:     "Check whether text scans as 5-7-5 (text from args or stdin)",
		ArgsUsage: "[text...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "author", Usage: "Attribute the formatted haiku to this name"},
			&cli.IntFlag{Name: "year", Usage: "Attribution year"},
		},
		Action: func(c *cli.Context) error {
			text, err := textInput(c, 4*ops.MaxHaikuChars)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Haiku(ops.HaikuInput{
				Text:   text,
				Author: c.String("author"),
				Year:   c.Int("year"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Helper functions

// textInput joins positional args, or reads piped stdin when there are none.
// limit is in bytes; ops enforces the character limits.
func textInput(c *cli.Context, limit int64) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if !stdinHasData() {
		return "", errors.NewInvalidRequest("text must be given as arguments or piped via stdin")
	}
	text, err := readStdin(limit)
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}
	return text, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	mErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", mErr.Code, mErr.Message), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("input exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}
