package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/app"
	"github.com/rpggio/taskdesk/internal/config"
	"github.com/rpggio/taskdesk/internal/controller"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/rpggio/taskdesk/internal/guard"
	"github.com/rpggio/taskdesk/internal/mcp"
	"github.com/rpggio/taskdesk/internal/session"
	"github.com/rpggio/taskdesk/internal/sqlite"
)

var version = "dev"

const usage = `usage: taskdesk <command> [flags]

commands:
  login   -email E -role admin|user [-password P]   log in and show the dashboard
  logout                                            clear the stored session
  status  [-remote]                                 show the stored session
  watch   [-every 5s]                               keep the dashboard open and redraw it
  mcp                                               serve MCP tools over stdio
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries command output and the MCP stream, so logs go to stderr.
	logWriter := io.Writer(os.Stderr)
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDir(cfg.Session.Path); err != nil {
		logger.Error("failed to prepare session path", "error", err)
		os.Exit(1)
	}
	db, err := sqlite.New(cfg.Session.Path)
	if err != nil {
		logger.Error("failed to open session database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	store := sqlite.NewSessionStore(db)
	client := api.New(api.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		Sessions: store,
		Logger:   logger,
	})
	shell := app.New(app.Options{
		Client:            client,
		Store:             store,
		AdminPollInterval: cfg.Poll.AdminInterval,
		UserPollInterval:  cfg.Poll.UserInterval,
		BannerTTL:         cfg.Poll.BannerTTL,
		Logger:            logger,
	})
	defer shell.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{shell: shell, store: store, client: client, logger: logger, out: os.Stdout, in: os.Stdin}
	if err := c.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskdesk: %s\n", describe(err))
		os.Exit(1)
	}
}

type cli struct {
	shell  *app.Shell
	store  session.Store
	client *api.Client
	logger *slog.Logger
	out    io.Writer
	in     io.Reader
}

func (c *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.login(ctx, args)
	case "logout":
		if err := c.shell.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "logged out")
		return nil
	case "status":
		return c.status(ctx, args)
	case "watch":
		return c.watch(ctx, args)
	case "mcp":
		return c.serveMCP(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(c.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("TASKDESK_PASSWORD"), "account password (prompted when empty)")
	role := fs.String("role", string(user.RoleUser), "role to log in as: admin or user")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(c.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	route, err := c.shell.Login(ctx, controller.LoginForm{
		Email:    *email,
		Password: *password,
		Role:     user.Role(*role),
	})
	if err != nil {
		return err
	}
	c.logger.Info("logged in", "route", route)
	return c.render()
}

func (c *cli) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	remote := fs.Bool("remote", false, "ask the server who the token belongs to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := c.store.Current(ctx)
	if session.IsAbsent(err) {
		fmt.Fprintln(c.out, "not logged in")
		return nil
	}
	if err != nil {
		return err
	}
	renderProfile(c.out, "stored", sess.Profile)

	if *remote {
		profile, err := c.client.CurrentUser(ctx)
		if err != nil {
			return err
		}
		renderProfile(c.out, "server", profile)
	}
	return nil
}

// watch keeps the session's dashboard mounted, so its polling runs, and
// redraws it until interrupted.
func (c *cli) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	every := fs.Duration("every", 5*time.Second, "redraw interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	route, err := c.shell.Start(ctx)
	if err != nil {
		return err
	}
	if route == guard.RouteLogin {
		return errors.New("not logged in; run taskdesk login first")
	}

	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	for {
		if err := c.render(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if c.shell.Route() == guard.RouteLogin {
			return errors.New("session ended; run taskdesk login again")
		}
	}
}

func (c *cli) serveMCP(ctx context.Context) error {
	if _, err := c.shell.Start(ctx); err != nil {
		return err
	}
	server := mcp.NewServer(mcp.Config{
		Shell:    c.shell,
		Sessions: c.store,
		Version:  version,
		Logger:   c.logger,
	})
	c.logger.Info("starting stdio transport")
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func (c *cli) render() error {
	if admin, ok := c.shell.Admin(); ok {
		return renderAdmin(c.out, admin.View())
	}
	if usr, ok := c.shell.User(); ok {
		return renderUser(c.out, usr.View())
	}
	fmt.Fprintln(c.out, "not logged in")
	return nil
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o700)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// describe turns client errors into one line for the terminal.
func describe(err error) string {
	var mismatch *controller.RoleMismatchError
	var verr *controller.ValidationError
	switch {
	case errors.As(err, &mismatch):
		return mismatch.Error()
	case errors.As(err, &verr):
		return verr.Error()
	case api.IsAuthError(err), api.IsUnauthorized(err):
		return "session is missing or expired; run taskdesk login"
	case api.IsNetworkError(err):
		return fmt.Sprintf("cannot reach the server: %v", err)
	}
	return err.Error()
}
