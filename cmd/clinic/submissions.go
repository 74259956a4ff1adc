package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"clinic-client/internal/model"
	"clinic-client/internal/pager"
	"clinic-client/internal/validate"
)

// parseStatusFlag maps the -status flag value onto the wire filter token.
// "all" (the default) means no status parameter at all.
func parseStatusFlag(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return "", nil
	case "pending":
		return string(model.StatusPending), nil
	case "in-progress", "in_progress":
		return string(model.StatusInProgress), nil
	case "done":
		return string(model.StatusDone), nil
	default:
		return "", fmt.Errorf("unknown status %q (want all, pending, in-progress or done)", s)
	}
}

// submissionsController builds a pager over the submissions endpoint.
func submissionsController(a *app) *pager.Controller[model.Submission] {
	fetch := func(ctx context.Context, page int, filter string) (pager.Page[model.Submission], error) {
		resp, err := a.api.Submissions(ctx, page, filter)
		if err != nil {
			return pager.Page[model.Submission]{}, err
		}
		return pager.Page[model.Submission]{Items: resp.Items, Pagination: resp.Pagination}, nil
	}
	return pager.New(fetch, a.log)
}

func printSubmissionRows(items []model.Submission) {
	if len(items) == 0 {
		fmt.Println("no submissions")
		return
	}
	for _, s := range items {
		fmt.Printf("%6d  %-12s  %-10s  %s\n", s.ID, s.Status, formatCreatedAt(s), s.Title)
	}
}

func cmdList(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", "all", "filter: all, pending, in-progress, done")
	all := fs.Bool("all", false, "walk every page, not just the first")
	_ = fs.Parse(args)

	filter, err := parseStatusFlag(*status)
	if err != nil {
		fail(err)
	}

	a.sess.Restore()
	if a.sess.User() == nil {
		fail(fmt.Errorf("not logged in"))
	}

	ctl := submissionsController(a)
	if filter != "" {
		ctl.SetFilter(ctx, filter)
	} else {
		ctl.FetchNext(ctx)
	}
	if msg := ctl.ErrorMessage(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
	if *all {
		for !ctl.Exhausted() {
			before := ctl.Page()
			ctl.LoadMore(ctx)
			if msg := ctl.ErrorMessage(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
				os.Exit(1)
			}
			if ctl.Page() == before {
				break
			}
		}
	}
	printSubmissionRows(ctl.Items())
	if !ctl.Exhausted() {
		fmt.Printf("(more pages available, page %d fetched; use -all)\n", ctl.Page())
	}
}

func cmdShow(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	id := fs.Int64("id", 0, "submission id")
	_ = fs.Parse(args)
	if *id <= 0 {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}

	a.sess.Restore()
	sub, err := a.api.Submission(ctx, *id)
	if err != nil {
		failMessage(err)
	}
	printJSON(sub)
}

func cmdNew(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	title := fs.String("title", "", "submission title")
	symptoms := fs.String("symptoms", "", "symptoms description")
	_ = fs.Parse(args)

	if err := validate.NewSubmissionForm(validate.NewSubmission{Title: *title, Symptoms: *symptoms}); err != nil {
		fail(err)
	}

	a.sess.Restore()
	if a.sess.User() == nil {
		fail(fmt.Errorf("not logged in"))
	}
	if err := a.api.CreateSubmission(ctx, *title, *symptoms); err != nil {
		failMessage(err)
	}
	fmt.Println("submission created")

	// Reload the list so the new item shows up where the server sorts it.
	ctl := submissionsController(a)
	ctl.NotifyExternalInsert(ctx)
	if msg := ctl.ErrorMessage(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	printSubmissionRows(ctl.Items())
}
