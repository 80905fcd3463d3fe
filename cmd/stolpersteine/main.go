package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"stolpersteine/internal"
	"stolpersteine/internal/batch"
	"stolpersteine/internal/config"
	"stolpersteine/internal/logging"
	"stolpersteine/internal/pipeline"
	"stolpersteine/internal/source"
	"stolpersteine/internal/storage"
	"stolpersteine/internal/util"
	"stolpersteine/internal/wiki"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	aliases, err := cfg.ColumnAliases()
	must(err)

	cmd := os.Args[1]
	ctx := context.Background()
	switch cmd {
	case "page:extract":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		list := fs.String("list", "", "list page title")
		file := fs.String("file", "", "saved page file instead of fetching")
		dialect := fs.String("dialect", cfg.DefaultDialect, "html|wikitext|auto")
		out := fs.String("out", "", "output json path")
		xlsxOut := fs.String("xlsx", "", "optional output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*list) == "" && strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--list or --file is required"))
		}

		var records []internal.Record
		if *file != "" {
			name := *list
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(*file), filepath.Ext(*file))
			}
			records, err = pipeline.ExtractFromFile(*file, *dialect, name, aliases)
			must(err)
		} else {
			must(cfg.RequireWiki())
			d, err := source.ParseDialect(*dialect)
			must(err)
			body, err := wiki.NewClient(cfg).FetchPage(ctx, *list, d)
			must(err)
			records, err = pipeline.ExtractFromString(string(body), string(d), *list, aliases)
			must(err)
		}

		target := *out
		if target == "" {
			base := *list
			if base == "" {
				base = filepath.Base(*file)
			}
			target = filepath.Join(cfg.OutputDir, util.SanitizeFilename(base)+".json")
		}
		must(pipeline.WriteRecordsJSON(records, target))
		if *xlsxOut != "" {
			must(pipeline.ExportRecordsToXLSX(records, *xlsxOut))
		}
		fmt.Printf("extracted %d records to %s\n", len(records), target)
	case "category:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		category := fs.String("category", cfg.WikiCategory, "category title")
		csvOut := fs.String("csv", "", "optional csv output path")
		recursive := fs.Bool("recursive", true, "walk subcategories")
		_ = fs.Parse(os.Args[2:])
		must(cfg.RequireWiki())

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		members, err := wiki.NewClient(cfg).CategoryMembers(ctx, *category, *recursive)
		must(err)
		for _, m := range members {
			_, err := db.UpsertPage(m.PageID, m.Title, cfg.DefaultDialect)
			must(err)
		}
		if *csvOut != "" {
			must(writeMembersCSV(members, *csvOut))
		}
		fmt.Printf("category %s: %d pages\n", *category, len(members))
	case "batch:run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		size := fs.Int("batch", cfg.BatchSize, "pages per cycle")
		_ = fs.Parse(os.Args[2:])
		cfg.BatchSize = *size
		cfg.BatchIntervalSec = 0
		must(cfg.RequireWiki())

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		client := wiki.NewClient(cfg)
		processor := pipeline.NewProcessingService(db, cfg, client, aliases)
		res, err := batch.NewService(db, cfg, client, processor).RunCycle(ctx)
		must(err)
		fmt.Printf("batch done listed=%d processed=%d records=%d exported=%d\n", res.Listed, res.Processed, res.Records, res.Exported)
	case "export:json", "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		title := fs.String("page", "", "page title")
		out := fs.String("out", "", "output path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*title) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--page and --out are required"))
		}

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		page, err := db.MustPageByTitle(*title)
		must(err)
		records, err := db.ListRecords(page.ID)
		must(err)
		if len(records) == 0 {
			must(fmt.Errorf("no records for page %q (status=%s)", page.Title, page.Status))
		}
		if cmd == "export:json" {
			must(pipeline.WriteRecordsJSON(records, *out))
		} else {
			must(pipeline.ExportRecordsToXLSX(records, *out))
		}
		fmt.Printf("exported %d records to %s\n", len(records), *out)
	default:
		usage()
		os.Exit(1)
	}
}

func writeMembersCSV(members []internal.CategoryMember, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"pageid", "title"})
	for _, m := range members {
		_ = w.Write([]string{strconv.Itoa(m.PageID), m.Title})
	}
	w.Flush()
	return w.Error()
}

func usage() {
	fmt.Println("usage: stolpersteine <command>")
	fmt.Println("commands:")
	fmt.Println("  category:list [--category=...] [--csv=./out/pages.csv] [--recursive=true]")
	fmt.Println("  page:extract --list=\"Liste der Stolpersteine in ...\" [--file=page.html] [--dialect=html|wikitext|auto] [--out=...json] [--xlsx=...xlsx]")
	fmt.Println("  batch:run [--batch=20]")
	fmt.Println("  export:json --page=\"Liste der Stolpersteine in ...\" --out=./out/page.json")
	fmt.Println("  export:xlsx --page=\"Liste der Stolpersteine in ...\" --out=./out/page.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
