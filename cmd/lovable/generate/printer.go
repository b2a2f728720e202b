package generatecmder

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/MikaNatus/open-lovable/pkg/cliui"
	"github.com/MikaNatus/open-lovable/pkg/progress"
)

// applyResults is the part of the apply service's results the CLI shows.
type applyResults struct {
	FilesCreated      []string `json:"filesCreated"`
	PackagesInstalled []string `json:"packagesInstalled"`
}

// summary collects what a generation produced.
type summary struct {
	content  strings.Builder
	packages []string
	stages   int
	results  json.RawMessage
	complete bool
	err      string
}

// printer renders progress events. Generated code goes to out and status
// lines to status, so piping out captures only the code.
type printer struct {
	out    io.Writer
	status io.Writer
	quiet  bool

	sum summary
}

func (p *printer) handle(ev progress.Event) error {
	switch ev.Type {
	case progress.TypeContent:
		p.sum.content.WriteString(ev.Content)
		if !p.quiet {
			fmt.Fprint(p.out, ev.Content)
		}

	case progress.TypePackage:
		p.sum.packages = append(p.sum.packages, ev.Name)
		fmt.Fprintf(p.status, "\n  %s %s\n", cliui.PackageStyle.Render("package"), ev.Name)

	case progress.TypeApplicationStart:
		fmt.Fprintf(p.status, "\n  %s\n", cliui.StepStyle.Render(ev.Message))

	case progress.TypeApplicationProgress:
		p.sum.stages++
		line := ev.Stage()
		if msg, ok := ev.Inner["message"].(string); ok && msg != "" {
			line += " " + msg
		}
		fmt.Fprintf(p.status, "  %s %s\n", cliui.StageStyle.Render("›"), strings.TrimSpace(line))

	case progress.TypeApplicationComplete:
		p.sum.complete = true
		p.sum.results = ev.Results
		fmt.Fprintf(p.status, "  %s %s\n", cliui.SuccessMark, ev.Message)

	case progress.TypeError:
		p.sum.err = ev.Error
		fmt.Fprintf(p.status, "\n  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(ev.Error))
	}
	return nil
}

// report prints the closing summary and returns the stream's error, if any.
func (p *printer) report() error {
	fmt.Fprintln(p.status)
	fmt.Fprintf(p.status, "  %s %d\n", cliui.KeyStyle.Render("Packages:"), len(p.sum.packages))
	for _, name := range p.sum.packages {
		fmt.Fprintf(p.status, "    %s\n", cliui.NameStyle.Render(name))
	}
	fmt.Fprintf(p.status, "  %s %d\n", cliui.KeyStyle.Render("Apply events:"), p.sum.stages)

	var res applyResults
	if len(p.sum.results) > 0 && json.Unmarshal(p.sum.results, &res) == nil {
		if len(res.FilesCreated) > 0 {
			fmt.Fprintf(p.status, "  %s %s\n", cliui.KeyStyle.Render("Files:"), strings.Join(res.FilesCreated, ", "))
		}
		if len(res.PackagesInstalled) > 0 {
			fmt.Fprintf(p.status, "  %s %s\n", cliui.KeyStyle.Render("Installed:"), strings.Join(res.PackagesInstalled, ", "))
		}
	}

	if p.sum.err != "" {
		return fmt.Errorf("generation failed: %s", p.sum.err)
	}
	if !p.sum.complete {
		fmt.Fprintf(p.status, "  %s %s\n", cliui.WarnStyle.Render("!"), "apply service did not report completion")
	}
	return nil
}
