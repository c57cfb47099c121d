package inspect

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/ld-enricher/internal/common"
	"github.com/dtnitsch/ld-enricher/pkg/detector"
	"github.com/dtnitsch/ld-enricher/pkg/fetcher"
)

// InspectAction shows what the enricher would extract from one page.
func InspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return common.Fail(common.ExitInput, "inspect takes exactly one URL")
	}
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return common.Fail(common.ExitInput, "invalid configuration: %v", err)
	}
	rawURL, err := common.CleanURL(c.Args().First())
	if err != nil {
		return common.Fail(common.ExitInput, "%v", err)
	}

	var html string
	if path := c.String("html-file"); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return common.Fail(common.ExitInput, "failed to read %s: %v", path, err)
		}
		html = string(data)
	} else {
		f, err := common.NewFetcher(cfg)
		if err != nil {
			return common.Fail(common.ExitInfra, "%v", err)
		}
		out := f.Fetch(c.Context, rawURL, cfg.Timeout())
		if out.Kind != fetcher.KindOK {
			return common.Fail(common.ExitInfra, "fetch %s: %s", rawURL, out.Message())
		}
		html = out.Body
	}

	report, err := detector.Analyze(rawURL, html)
	if err != nil {
		return common.Fail(common.ExitInput, "%v", err)
	}
	return common.PrintYAML(report)
}
