package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/phuslu/log"
	"github.com/urfave/cli/v2"

	"github.com/knights-analytics/chemrex"
	"github.com/knights-analytics/chemrex/crawler"
	"github.com/knights-analytics/chemrex/parser"
	"github.com/knights-analytics/chemrex/util"

	jsoniter "github.com/json-iterator/go"
)

var (
	outputPath    string
	metadataPath  string
	inputPath     string
	limit         int
	skip          int
	modelName     string
	modelsDir     string
	grobidURL     string
	quantitiesURL string
	chemModel     string
	embedModel    string
	relationModel string
	threshold     float64
	chemOnly      bool
)

var logger = log.Logger{Level: log.InfoLevel, Writer: &log.ConsoleWriter{ColorOutput: isatty.IsTerminal(os.Stderr.Fd())}}

var crawlCommand = &cli.Command{
	Name:  "crawl",
	Usage: "Fetch preprint metadata from ChemRxiv",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Usage:       "Path of the metadata .jsonl file to write",
			Aliases:     []string{"o"},
			Destination: &outputPath,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of records to fetch, 0 for all",
			Aliases:     []string{"l"},
			Destination: &limit,
		},
		&cli.IntFlag{
			Name:        "skip",
			Usage:       "Listing offset to resume from",
			Destination: &skip,
		},
	},
	Action: func(ctx *cli.Context) error {
		c := crawler.New(&logger)
		items, err := c.Items(ctx.Context, skip, limit)
		if err != nil {
			return err
		}
		if err := crawler.SaveMetadata(outputPath, items); err != nil {
			return err
		}
		logger.Info().Int("records", len(items)).Str("output", outputPath).Msg("crawl finished")
		return nil
	},
}

var downloadPDFsCommand = &cli.Command{
	Name:  "download-pdfs",
	Usage: "Download the PDFs of previously crawled metadata",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "metadata",
			Usage:       "Path of the metadata .jsonl file from the crawl command",
			Aliases:     []string{"m"},
			Destination: &metadataPath,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "output",
			Usage:       "Directory to download PDFs into",
			Aliases:     []string{"o"},
			Destination: &outputPath,
			Required:    true,
		},
	},
	Action: func(ctx *cli.Context) error {
		items, err := crawler.LoadMetadata(metadataPath)
		if err != nil {
			return err
		}
		return crawler.New(&logger).DownloadPDFs(ctx.Context, items, outputPath)
	},
}

var installModelsCommand = &cli.Command{
	Name:  "install-models",
	Usage: "Download a recognition or embedding model from huggingface",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Model name on huggingface",
			Aliases:     []string{"p"},
			Destination: &modelName,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "modelFolder",
			Usage:       "Folder where to store downloaded models. Falls back to $HOME/chemrex/models if not specified",
			Aliases:     []string{"f"},
			Destination: &modelsDir,
		},
	},
	Action: func(ctx *cli.Context) error {
		if modelsDir == "" {
			userDir, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			modelsDir = util.PathJoinSafe(userDir, "chemrex", "models")
		}
		options := chemrex.NewDownloadOptions()
		options.Verbose = true
		modelPath, err := chemrex.DownloadModel(modelName, modelsDir, options)
		if err != nil {
			return err
		}
		logger.Info().Str("path", modelPath).Msg("model installed")
		return nil
	},
}

var extractCommand = &cli.Command{
	Name:  "extract",
	Usage: "Extract chemical/property/value tuples from PDFs",
	Description: `Extract parses each PDF through a running GROBID service, recognizes
chemical, property and quantity entities, scores candidate relations and
writes the assembled tuples as .jsonl, one tuple per line. If --output is
omitted the tuples are written to stdout.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Usage:       "Path to a PDF or a folder of PDFs",
			Aliases:     []string{"i"},
			Destination: &inputPath,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "output",
			Usage:       "Path of the .jsonl file to write, stdout if omitted",
			Aliases:     []string{"o"},
			Destination: &outputPath,
		},
		&cli.StringFlag{
			Name:        "grobid",
			Usage:       "Base URL of the GROBID service",
			Destination: &grobidURL,
			Value:       parser.DefaultGrobidURL,
		},
		&cli.StringFlag{
			Name:        "quantities",
			Usage:       "Base URL of the grobid-quantities service, quantity recognition is skipped if omitted",
			Destination: &quantitiesURL,
		},
		&cli.StringFlag{
			Name:        "chemModel",
			Usage:       "Directory of the onnx chemical recognition model",
			Destination: &chemModel,
		},
		&cli.StringFlag{
			Name:        "embeddingModel",
			Usage:       "Directory of the onnx token embedding model",
			Destination: &embedModel,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "relationModel",
			Usage:       "Path of the relation classifier parameters",
			Destination: &relationModel,
			Required:    true,
		},
		&cli.Float64Flag{
			Name:        "threshold",
			Usage:       "Relation probability threshold",
			Destination: &threshold,
			Value:       0.45,
		},
		&cli.BoolFlag{
			Name:        "requireChemicals",
			Usage:       "Only keep tuples with at least one linked chemical",
			Destination: &chemOnly,
		},
	},
	Action: extract,
}

func extract(_ *cli.Context) error {
	session, err := chemrex.NewSession(
		chemrex.WithChemModel(chemModel),
		chemrex.WithEmbeddingModel(embedModel),
		chemrex.WithRelationModel(relationModel),
		chemrex.WithQuantitiesService(quantitiesURL),
		chemrex.WithThreshold(float32(threshold)),
		chemrex.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	pdfs, err := collectPDFs(inputPath)
	if err != nil {
		return err
	}
	if len(pdfs) == 0 {
		return fmt.Errorf("no PDFs found at %s", inputPath)
	}

	var writer = os.Stdout
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	client := parser.NewClient(grobidURL)
	filter := chemrex.TupleFilter{RequireChemicals: chemOnly}
	for _, pdf := range pdfs {
		article, err := client.ParsePDF(pdf)
		if err != nil {
			logger.Warn().Err(err).Str("pdf", pdf).Msg("parsing failed")
			continue
		}
		docs, err := session.AnnotateArticle(article)
		if err != nil {
			logger.Warn().Err(err).Str("pdf", pdf).Msg("recognition failed")
			continue
		}
		if err := session.ExtractRelations(docs); err != nil {
			return err
		}
		for _, record := range session.Tuples(docs, filter) {
			line, err := jsoniter.Marshal(record)
			if err != nil {
				return err
			}
			if _, err := writer.Write(append(line, '\n')); err != nil {
				return err
			}
		}
		logger.Info().Str("pdf", pdf).Int("sentences", len(docs)).Msg("processed")
	}
	return nil
}

func collectPDFs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var pdfs []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(path, entry.Name()))
		}
	}
	return pdfs, nil
}

func main() {
	app := &cli.App{
		Name:     "chemrex",
		Usage:    "Chemical compound, property and value extraction from scientific articles",
		Commands: []*cli.Command{crawlCommand, downloadPDFsCommand, installModelsCommand, extractCommand},
	}
	if err := app.Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		logger.Fatal().Err(err).Msg("command failed")
	}
}
