// Command clinic is a CLI client for the clinic submission-tracking service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"clinic-client/internal/api"
	"clinic-client/internal/config"
	"clinic-client/internal/gate"
	"clinic-client/internal/model"
	"clinic-client/internal/securestore"
	"clinic-client/internal/session"
	"clinic-client/internal/validate"

	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app bundles the wired client pieces every subcommand needs.
type app struct {
	cfg  config.Config
	log  *zap.Logger
	api  *api.Client
	sess *session.Manager
}

func usage() {
	fmt.Fprintf(os.Stderr, `clinic CLI
Usage:
  clinic [-base URL] [-data DIR] [-timeout D] [-v] <cmd> [args]

Commands:
  version
  signup     -name N -email E -password P -confirm P [-role PATIENT|DOCTOR]
  login      -email E -password P                    (saves session)
  logout
  whoami
  profile    [-name N] [-phone P] [-weight W] [-height H] [-other TEXT]
  list       [-status all|pending|in-progress|done] [-all]
  show       -id N
  new        -title T -symptoms TEXT
`)
	os.Exit(2)
}

// main wires configuration, storage and the API client, then dispatches.
func main() {
	base := flag.String("base", "", "API base URL (overrides config)")
	data := flag.String("data", "", "data directory (overrides config)")
	timeout := flag.Duration("timeout", 0, "HTTP timeout (overrides config)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	if *base != "" {
		cfg.BaseURL = *base
	}
	if *data != "" {
		cfg.DataDir = *data
	}
	if *timeout != 0 {
		cfg.Timeout = *timeout
	}

	log := zap.NewNop()
	if *verbose {
		log, _ = zap.NewDevelopment()
	}
	defer func() { _ = log.Sync() }()

	store, err := securestore.Open(cfg.DataDir)
	if err != nil {
		fail(err)
	}
	a := &app{
		cfg: cfg,
		log: log,
		api: api.New(cfg.BaseURL, cfg.Timeout, log),
	}
	a.sess = session.New(a.api, store, log)

	ctx := context.Background()

	switch cmd {
	case "version":
		fmt.Printf("clinic %s (%s)\n", version, buildDate)
	case "signup":
		cmdSignup(ctx, a, args)
	case "login":
		cmdLogin(ctx, a, args)
	case "logout":
		cmdLogout(ctx, a)
	case "whoami":
		cmdWhoami(a)
	case "profile":
		cmdProfile(ctx, a, args)
	case "list":
		cmdList(ctx, a, args)
	case "show":
		cmdShow(ctx, a, args)
	case "new":
		cmdNew(ctx, a, args)
	default:
		usage()
	}
}

func cmdSignup(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	role := fs.String("role", string(model.RolePatient), "PATIENT or DOCTOR")
	_ = fs.Parse(args)

	form := validate.Signup{
		Name:                 *name,
		Email:                *email,
		Password:             *password,
		PasswordConfirmation: *confirm,
		Role:                 *role,
	}
	if err := validate.SignupForm(form); err != nil {
		fail(err)
	}
	err := a.api.Signup(ctx, api.SignupRequest{
		Name:                 *name,
		Email:                *email,
		Password:             *password,
		PasswordConfirmation: *confirm,
		Role:                 model.Role(*role),
	})
	if err != nil {
		failMessage(err)
	}
	fmt.Println("User created! Please login.")
}

func cmdLogin(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	a.sess.Login(ctx, *email, *password)
	if msg := a.sess.ErrorMessage(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
	u := a.sess.User()
	fmt.Printf("logged in as %s (%s)\n", u.Name, u.Role)
}

func cmdLogout(ctx context.Context, a *app) {
	a.sess.Restore()
	a.sess.Logout(ctx)
	if msg := a.sess.ErrorMessage(); msg != "" {
		// Teardown happened regardless; the remote call is best-effort.
		fmt.Fprintf(os.Stderr, "server logout failed (%s), local session cleared\n", msg)
		return
	}
	fmt.Println("logged out")
}

func cmdWhoami(a *app) {
	a.sess.Restore()
	u := a.sess.User()
	if u == nil {
		fmt.Println("not logged in")
		fmt.Printf("screens: %v\n", gate.Visible(gate.State{}))
		return
	}
	printJSON(u)
	state := gate.State{Authenticated: true, Role: u.Role, ProfileComplete: a.sess.IsProfileComplete()}
	fmt.Printf("profile complete: %v\n", state.ProfileComplete)
	fmt.Printf("screens: %v\n", gate.Visible(state))
}

func cmdProfile(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	phone := fs.String("phone", "", "phone number")
	weight := fs.Float64("weight", 0, "weight")
	height := fs.Float64("height", 0, "height")
	other := fs.String("other", "", "other information")
	_ = fs.Parse(args)

	var patch model.UserPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = name
		case "phone":
			patch.PhoneNumber = phone
		case "weight":
			patch.Weight = weight
		case "height":
			patch.Height = height
		case "other":
			patch.OtherInfo = other
		}
	})
	if patch == (model.UserPatch{}) {
		fail(fmt.Errorf("nothing to update, pass at least one field flag"))
	}

	a.sess.Restore()
	a.sess.UpdateProfile(ctx, patch)
	if msg := a.sess.ErrorMessage(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
	printJSON(a.sess.User())
	fmt.Printf("profile complete: %v\n", a.sess.IsProfileComplete())
}

// ---- helpers ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// failMessage prints the user-facing message for an API failure.
func failMessage(err error) {
	fmt.Fprintln(os.Stderr, api.ErrorMessage(err))
	os.Exit(1)
}

func formatCreatedAt(s model.Submission) string {
	if t := s.CreatedAtTime(); !t.IsZero() {
		return t.Format("1/2/06")
	}
	return s.CreatedAt
}
