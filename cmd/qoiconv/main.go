package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/bodgit/qoiconv"
	"github.com/bodgit/qoiconv/qoi"
	"github.com/urfave/cli/v2"
)

const defaultDB = "qoiconv.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(c.App.ErrWriter)
	}
	return logger
}

func historyFile(c *cli.Context) string {
	if c.Bool("no-history") {
		return ""
	}
	return c.String("db")
}

func newConverter(c *cli.Context) (*qoiconv.Converter, error) {
	compression, err := qoiconv.ParseCompression(c.String("compress"))
	if err != nil {
		return nil, err
	}

	return qoiconv.New(historyFile(c), newLogger(c), &qoiconv.Options{
		Runs:        c.Bool("runs"),
		Colors:      c.Int("colors"),
		Compression: compression,
		Workers:     c.Int("workers"),
		Force:       c.Bool("force"),
	})
}

func encodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "runs",
			Usage: "collapse repeated pixels into run chunks",
		},
		&cli.IntFlag{
			Name:    "colors",
			EnvVars: []string{"QOICONV_COLORS"},
			Usage:   "reduce to a palette of at most `N` colors, 0 to disable",
		},
		&cli.StringFlag{
			Name:    "compress",
			EnvVars: []string{"QOICONV_COMPRESS"},
			Value:   qoiconv.None.String(),
			Usage:   "wrap output with `METHOD` (none, zstd, lz4)",
		},
	}
}

func newApp(cwd string) *cli.App {
	app := cli.NewApp()

	app.Name = "qoiconv"
	app.Usage = "QOI image conversion utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"QOICONV_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to history database",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "don't record conversions",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "encode",
			Usage:       "Encode an image as QOI",
			Description: "Decodes a PNG, JPEG or GIF image and writes it in QOI format. Without OUTPUT the input extension is replaced.",
			ArgsUsage:   "FILE [OUTPUT]",
			Flags:       encodeFlags(),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, err := newConverter(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				r, err := m.Convert(c.Args().Get(0), c.Args().Get(1))
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Fprintf(c.App.Writer, "Wrote %s (%dx%d, %d channels, %d bytes)\n", r.Destination, r.Width, r.Height, r.Channels, r.Size)

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Scan filesystem and encode every image found",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags: append(encodeFlags(),
				&cli.IntFlag{
					Name:  "workers",
					Value: 10,
					Usage: "number of concurrent conversions",
				},
				&cli.BoolFlag{
					Name:  "force",
					Usage: "convert images even if unchanged",
				},
			),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, err := newConverter(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				if err := m.Scan(c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "history",
			Usage: "List recorded conversions",
			Action: func(c *cli.Context) error {
				// Encode options don't apply, only the database is needed
				m, err := qoiconv.New(historyFile(c), newLogger(c), nil)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				records, err := m.History()
				if err != nil {
					return cli.Exit(err, 1)
				}

				w := tabwriter.NewWriter(c.App.Writer, 0, 8, 1, ' ', 0)
				fmt.Fprintln(w, "SOURCE\tDESTINATION\tSIZE\tDIMENSIONS\tSHA1")
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%d\t%dx%dx%d\t%s\n", r.Source, r.Destination, r.Size, r.Width, r.Height, r.Channels, r.SHA1)
				}

				return w.Flush()
			},
		},
		{
			Name:      "info",
			Usage:     "Print the header of a QOI image",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := os.Open(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer f.Close()

				h, err := qoi.DecodeHeader(f)
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Fprintf(c.App.Writer, "width=%d height=%d channels=%d colorspace=%d\n", h.Width, h.Height, h.Channels, h.Colorspace)

				return nil
			},
		},
	}

	return app
}

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	if err := newApp(cwd).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
