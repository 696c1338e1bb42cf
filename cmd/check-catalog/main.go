package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/stemsi/certifypro-backend/internal/catalog"
	"github.com/stemsi/certifypro-backend/internal/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: check-catalog <catalog.json>")
		fmt.Fprintln(os.Stderr, "Validates an exam catalog file and prints a summary.")
	}
	flag.Parse()

	log := logger.Setup(logger.Options{Level: "info", Format: "pretty"})

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cat, err := catalog.LoadFile(path)
	if err != nil {
		var cfgErr *catalog.ConfigurationError
		if errors.As(err, &cfgErr) {
			for _, problem := range cfgErr.Problems {
				log.Error().Str("path", path).Msg(problem)
			}
		} else {
			log.Error().Err(err).Str("path", path).Msg("Catalog could not be read")
		}
		os.Exit(1)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tQUESTIONS\tMINUTES\tPASS\tPRICE")
	for _, e := range cat.List() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.0f%%\t%.2f\n",
			e.ID, e.Title, e.QuestionCount, e.DurationMinutes, e.PassScore, e.Price)
	}
	_ = tw.Flush()

	log.Info().Int("exams", cat.Len()).Str("path", path).Msg("Catalog is valid")
}
