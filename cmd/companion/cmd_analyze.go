package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"complexity-analyzer-go/cache"
	"complexity-analyzer-go/client"
	"complexity-analyzer-go/config"
	"complexity-analyzer-go/dom"
	"complexity-analyzer-go/extractor"
	"complexity-analyzer-go/logcolors"
	"complexity-analyzer-go/orchestrator"
	"complexity-analyzer-go/surface"
	"complexity-analyzer-go/watcher"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	errNotProblemPage = errors.New("page is not a problem page")
	errNoVerdict      = errors.New("no accepted submission on the page")
)

type analyzeOptions struct {
	pagePath     string
	pageURL      string
	codePath     string
	language     string
	endpoint     string
	timeout      time.Duration
	markAccepted bool
	showHTML     bool

	urlPattern string
	rootID     string
	attempts   int
	delay      time.Duration
	fallback   string
}

func newAnalyzeCmd(conf config.Config, flags *globalFlags) *cobra.Command {
	opts := &analyzeOptions{
		urlPattern: conf.Client.ProblemURLPattern,
		rootID:     conf.Client.AppRootID,
		attempts:   conf.Client.RootWaitAttempts,
		delay:      conf.RootWaitDelay(),
		fallback:   conf.Client.FallbackLanguage,
	}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Attach the analyze button to a saved problem page, press it and print the panel",
		Example: `  companion analyze --page two-sum.html --url https://leetcode.com/problems/two-sum/ \
      --code solution.py --language python3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			pc, err := openCache(conf, flags)
			if err != nil {
				return err
			}
			defer pc.Close()

			return runAnalyze(ctx, opts, pc, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.pagePath, "page", "", "saved HTML of the problem page")
	cmd.Flags().StringVar(&opts.pageURL, "url", "", "URL the page was saved from")
	cmd.Flags().StringVar(&opts.codePath, "code", "-", "file holding the editor contents, - for stdin")
	cmd.Flags().StringVar(&opts.language, "language", "", "language the editor reports")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", conf.Client.AnalyzeEndpoint, "analysis backend endpoint")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Duration(conf.Client.RequestTimeoutSec)*time.Second, "overall time limit")
	cmd.Flags().BoolVar(&opts.markAccepted, "mark-accepted", false, "insert an Accepted verdict if the page has none")
	cmd.Flags().BoolVar(&opts.showHTML, "html", false, "print the rendered panel markup as well")
	cmd.MarkFlagRequired("page")
	cmd.MarkFlagRequired("url")
	return cmd
}

type runResult struct {
	outcome orchestrator.Outcome
	err     error
}

// runAnalyze loads the page, lets the watcher attach the trigger, clicks it
// and writes the panel text to out once the run finishes.
func runAnalyze(ctx context.Context, opts *analyzeOptions, pc *cache.PersistentCache, stdin io.Reader, out io.Writer) error {
	pattern, err := regexp.Compile(opts.urlPattern)
	if err != nil {
		return fmt.Errorf("invalid problem URL pattern: %w", err)
	}

	doc, err := loadPage(opts.pagePath, opts.pageURL)
	if err != nil {
		return err
	}
	code, err := readCode(opts.codePath, stdin)
	if err != nil {
		return err
	}
	doc.InstallEditor(&dom.Model{Text: code, Language: opts.language})

	surf := surface.New(doc)
	orch := orchestrator.New(
		extractor.New(doc, opts.fallback),
		cache.NewAnalysisStore(pc),
		client.New(opts.endpoint, opts.timeout),
		surf,
	)

	done := make(chan runResult, 1)
	onTrigger := func() {
		orch.Trigger(ctx, func(outcome orchestrator.Outcome, err error) {
			select {
			case done <- runResult{outcome: outcome, err: err}:
			default:
			}
		})
	}

	w := watcher.New(doc, surf, onTrigger, watcher.Options{
		URLPattern: pattern,
		RootID:     opts.rootID,
		Attempts:   opts.attempts,
		Delay:      opts.delay,
	})
	active, err := w.Start(ctx)
	if err != nil {
		return err
	}
	if !active {
		return fmt.Errorf("%w: %s", errNotProblemPage, opts.pageURL)
	}
	defer w.Stop()

	if surf.Trigger() == nil && opts.markAccepted {
		markAccepted(doc, opts.rootID)
	}
	trigger := surf.Trigger()
	if trigger == nil {
		return errNoVerdict
	}

	log.Debugf("%s Pressing %q", logcolors.LogCompanion, doc.Text(trigger))
	doc.Click(trigger)

	var res runResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	fmt.Fprintln(out, surf.PanelText())
	if opts.showHTML {
		fmt.Fprintln(out, doc.OuterHTML(surf.Panel()))
	}
	if res.err != nil {
		return res.err
	}
	if res.outcome.Cached {
		log.Infof("%s Served from cache (%s)", logcolors.LogCompanion, res.outcome.Key)
	}
	return nil
}

func loadPage(path, url string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	doc, err := dom.Parse(url, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

func readCode(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	return string(data), nil
}

// markAccepted appends a verdict under the application root, the way the
// site does after a successful submission.
func markAccepted(doc *dom.Document, rootID string) {
	parent := doc.ElementByID(rootID)
	if parent == nil {
		parent = doc.Body()
	}
	if parent == nil {
		return
	}
	verdict := doc.CreateElement("span")
	doc.SetAttr(verdict, "data-e2e-locator", "submission-result")
	doc.SetText(verdict, watcher.AcceptedText)
	doc.AppendChild(parent, verdict)
}
