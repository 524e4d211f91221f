package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"lms_client/internal/apiclient"
	"lms_client/internal/config"
	"lms_client/internal/middleware"
	"lms_client/internal/model"
	"lms_client/internal/page"
	"lms_client/internal/service"
	"lms_client/internal/theme"
	"lms_client/internal/util"
	"lms_client/pkg/logger"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// NewCLI 命令行入口。所有命令把结果以 JSON 写到 stdout，失败时输出用户可读的错误并以 1 退出。
func NewCLI() *cli.App {
	return &cli.App{
		Name:  "lms",
		Usage: "command line client for the LMS platform",
		// 退出码由 Run 统一处理，保证 After 能释放资源
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "configs", Usage: "directory holding config.yaml", EnvVars: []string{"LMS_CONFIG_DIR"}},
			&cli.StringFlag{Name: "api", Usage: "override api.base_url"},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if u := c.String("api"); u != "" {
				cfg.API.BaseURL = u
			}
			a, err := NewApp(c.Context, cfg)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			c.App.Metadata = map[string]interface{}{"app": a}
			return nil
		},
		After: func(c *cli.Context) error {
			if a := fromContext(c); a != nil {
				a.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			loginCommand(),
			registerCommand(),
			{Name: "logout", Usage: "clear the stored session", Action: logoutAction},
			{Name: "whoami", Usage: "show the signed-in user", Action: whoamiAction},
			coursesCommand(),
			lessonsCommand(),
			enrollmentsCommand(),
			{Name: "enroll", Usage: "enroll in a course", ArgsUsage: "<course-id>", Action: enrollAction},
			reviewCommand(),
			wishlistCommand(),
			certificatesCommand(),
			batchesCommand(),
			{Name: "dashboard", Usage: "show the dashboard for the signed-in role", Action: dashboardAction},
			adminCommand(),
			themeCommand(),
			{Name: "serve", Usage: "run the local view server", Action: serveAction},
		},
	}
}

// Run 带信号处理执行命令行
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewCLI().RunContext(ctx, args); err != nil {
		if coder, ok := err.(cli.ExitCoder); ok {
			if msg := coder.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			return coder.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func fromContext(c *cli.Context) *App {
	if c.App.Metadata == nil {
		return nil
	}
	a, _ := c.App.Metadata["app"].(*App)
	return a
}

var stdout io.Writer = os.Stdout

func printJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// MsgCanceled 用户中断命令时的提示，退出码沿用 shell 的 SIGINT 约定
const MsgCanceled = "canceled"

// fail 把错误转换成用户消息；字段错误逐行附上
func fail(err error, mc util.MessageContext) error {
	if apiclient.IsCanceled(err) {
		return cli.Exit(MsgCanceled, 130)
	}
	logger.Log.Debug("Command failed",
		zap.String("server_message", apiclient.ServerMessage(err)),
		zap.Error(err))

	var alert *page.Alert
	if !errors.As(err, &alert) {
		return cli.Exit(util.UserMessage(err, mc), 1)
	}
	msg := alert.Message
	for field, m := range alert.Fields {
		msg += fmt.Sprintf("\n  %s: %s", field, m)
	}
	return cli.Exit(msg, 1)
}

func failView(ve *page.ViewError) error {
	return cli.Exit(fmt.Sprintf("%s (%v)", ve.Message, ve.Actions), 1)
}

func requireArg(c *cli.Context, name string) (string, error) {
	v := c.Args().First()
	if v == "" {
		return "", cli.Exit(fmt.Sprintf("missing <%s>", name), 1)
	}
	return v, nil
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"LMS_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			a := fromContext(c)
			user, err := a.Services.Auth.Login(c.Context, service.LoginRequest{
				Email:    c.String("email"),
				Password: c.String("password"),
			})
			if err != nil {
				return fail(err, util.ContextLogin)
			}
			return printJSON(map[string]interface{}{"user": user, "home": middleware.HomeFor(user.Role)})
		},
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"LMS_PASSWORD"}},
			&cli.StringFlag{Name: "confirm", Usage: "password confirmation, defaults to --password"},
			&cli.StringFlag{Name: "role", Value: string(model.Student)},
		},
		Action: func(c *cli.Context) error {
			confirm := c.String("confirm")
			if !c.IsSet("confirm") {
				confirm = c.String("password")
			}
			user, err := fromContext(c).Services.Auth.Register(c.Context, service.RegisterRequest{
				Name:            c.String("name"),
				Email:           c.String("email"),
				Password:        c.String("password"),
				ConfirmPassword: confirm,
				Role:            model.UserRole(c.String("role")),
			})
			if err != nil {
				return fail(err, util.ContextMutation)
			}
			return printJSON(map[string]interface{}{"user": user, "home": middleware.HomeFor(user.Role)})
		},
	}
}

func logoutAction(c *cli.Context) error {
	if err := fromContext(c).Services.Auth.Logout(c.Context); err != nil {
		return fail(err, util.ContextMutation)
	}
	return printJSON(map[string]string{"redirect": "/"})
}

// requireRole 命令行与视图服务共用同一个路由守卫
func requireRole(id middleware.Identity, roles ...model.UserRole) (middleware.Decision, error) {
	d := middleware.Guard(id, roles...)
	switch d.Outcome {
	case middleware.RedirectLogin:
		return d, cli.Exit(util.MsgAuthRequired+" (run: lms login)", 1)
	case middleware.RedirectHome:
		return d, cli.Exit(fmt.Sprintf("%s (home: %s)", util.MsgAccessDenied, d.Location), 1)
	}
	return d, nil
}

func whoamiAction(c *cli.Context) error {
	a := fromContext(c)
	if _, err := requireRole(a.Session); err != nil {
		return err
	}
	user, err := a.Services.Auth.Me(c.Context)
	if err != nil {
		return fail(err, util.ContextLoad)
	}
	return printJSON(user)
}

func coursesCommand() *cli.Command {
	return &cli.Command{
		Name:  "courses",
		Usage: "browse and manage courses",
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search"},
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "level"},
					&cli.StringFlag{Name: "sort"},
					&cli.IntFlag{Name: "page"},
					&cli.IntFlag{Name: "limit"},
				},
				Action: func(c *cli.Context) error {
					list, err := fromContext(c).Services.Courses.List(c.Context, model.CourseFilter{
						Search:   c.String("search"),
						Category: c.String("category"),
						Level:    model.CourseLevel(c.String("level")),
						Sort:     c.String("sort"),
						Page:     c.Int("page"),
						Limit:    c.Int("limit"),
					})
					if err != nil {
						return fail(err, util.ContextLoad)
					}
					return printJSON(list)
				},
			},
			{
				Name:      "show",
				ArgsUsage: "<course-id>",
				Action: func(c *cli.Context) error {
					p, err := openCourse(c)
					if err != nil {
						return err
					}
					defer p.Close()
					return printJSON(p.View())
				},
			},
			{Name: "publish", ArgsUsage: "<course-id>", Action: publishAction(true)},
			{Name: "unpublish", ArgsUsage: "<course-id>", Action: publishAction(false)},
			courseCreateCommand(),
			courseUpdateCommand(),
			courseDeleteCommand(),
			courseStatsCommand(),
		},
	}
}

func openCourse(c *cli.Context) (*page.CourseDetailPage, error) {
	id, err := requireArg(c, "course-id")
	if err != nil {
		return nil, err
	}
	a := fromContext(c)
	p := page.NewCourseDetailPage(c.Context, a.CourseServices(), id)
	if err := p.Load(c.Context); err != nil {
		ve := p.View().Error
		p.Close()
		if ve == nil {
			return nil, fail(err, util.ContextLoad)
		}
		return nil, failView(ve)
	}
	_, _ = p.CheckEnrollment(c.Context)
	return p, nil
}

func publishAction(publish bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		p, err := openCourse(c)
		if err != nil {
			return err
		}
		defer p.Close()

		if publish {
			err = p.Publish(c.Context)
		} else {
			err = p.Unpublish(c.Context)
		}
		if err != nil {
			return fail(err, util.ContextMutation)
		}
		return printJSON(p.View().Course)
	}
}

func enrollAction(c *cli.Context) error {
	p, err := openCourse(c)
	if err != nil {
		return err
	}
	defer p.Close()

	e, err := p.Enroll(c.Context)
	if err != nil {
		return fail(err, util.ContextMutation)
	}
	return printJSON(e)
}

func reviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "review a course",
		ArgsUsage: "<course-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "rating", Required: true},
			&cli.StringFlag{Name: "title"},
			&cli.StringFlag{Name: "comment", Required: true},
		},
		Action: func(c *cli.Context) error {
			p, err := openCourse(c)
			if err != nil {
				return err
			}
			defer p.Close()

			r, err := p.SubmitReview(c.Context, model.ReviewInput{
				Rating:  c.Int("rating"),
				Title:   c.String("title"),
				Comment: c.String("comment"),
			})
			if err != nil {
				return fail(err, util.ContextMutation)
			}
			return printJSON(r)
		},
	}
}

func wishlistCommand() *cli.Command {
	return &cli.Command{
		Name:  "wishlist",
		Usage: "manage saved courses",
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Action: func(c *cli.Context) error {
					p := page.NewWishlistPage(c.Context, fromContext(c).Services.Wishlist)
					defer p.Close()
					_ = p.Load(c.Context)
					v := p.View()
					if v.Error != nil {
						return failView(v.Error)
					}
					return printJSON(v)
				},
			},
			{
				Name:      "add",
				ArgsUsage: "<course-id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "course-id")
					if err != nil {
						return err
					}
					if err := fromContext(c).Services.Wishlist.Add(c.Context, id); err != nil {
						return fail(err, util.ContextMutation)
					}
					return printJSON(map[string]string{"added": id})
				},
			},
			{
				Name:      "remove",
				ArgsUsage: "<course-id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "course-id")
					if err != nil {
						return err
					}
					if err := fromContext(c).Services.Wishlist.Remove(c.Context, id); err != nil {
						return fail(err, util.ContextMutation)
					}
					return printJSON(map[string]string{"removed": id})
				},
			},
		},
	}
}

func certificatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "certificates",
		Usage: "list, download, issue or verify certificates",
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Action: func(c *cli.Context) error {
					certs, err := fromContext(c).Services.Certificates.Mine(c.Context)
					if err != nil {
						return fail(err, util.ContextLoad)
					}
					return printJSON(certs)
				},
			},
			{
				Name:      "download",
				ArgsUsage: "<certificate-id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "certificate-id")
					if err != nil {
						return err
					}
					loc, err := fromContext(c).Services.Certificates.Download(c.Context, id)
					if err != nil {
						return fail(err, util.ContextLoad)
					}
					return printJSON(map[string]string{"location": loc})
				},
			},
			certificateGenerateCommand(),
			certificateVerifyCommand(),
		},
	}
}

func batchesCommand() *cli.Command {
	return &cli.Command{
		Name:  "batches",
		Usage: "browse and manage cohorts",
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "upcoming, active, completed or archived"},
					&cli.StringFlag{Name: "course"},
				},
				Action: func(c *cli.Context) error {
					p := page.NewBatchListPage(c.Context, fromContext(c).Services.Batches)
					defer p.Close()
					_ = p.SetFilters(c.Context, model.BatchFilter{
						Status: model.BatchStatus(c.String("status")),
						Course: c.String("course"),
					})
					v := p.View()
					if v.Error != nil {
						return failView(v.Error)
					}
					return printJSON(v)
				},
			},
			{
				Name:      "show",
				ArgsUsage: "<batch-id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "batch-id")
					if err != nil {
						return err
					}
					p := page.NewBatchDetailPage(c.Context, fromContext(c).Services.Batches, id)
					defer p.Close()
					_ = p.Load(c.Context)
					v := p.View()
					if v.Error != nil {
						return failView(v.Error)
					}
					return printJSON(v)
				},
			},
			batchCreateCommand(),
			batchUpdateCommand(),
			batchDeleteCommand(),
		},
	}
}

func dashboardAction(c *cli.Context) error {
	a := fromContext(c)
	d, err := requireRole(a.Session, model.Student, model.Teacher, model.Admin)
	if err != nil {
		return err
	}

	var (
		view interface{}
		ve   *page.ViewError
	)
	switch d.Role {
	case model.Teacher:
		p := page.NewTeacherDashboardPage(c.Context, a.TeacherServices())
		defer p.Close()
		_ = p.Load(c.Context)
		v := p.View()
		view, ve = v, v.Error
	case model.Admin:
		p := page.NewAdminDashboardPage(c.Context, a.AdminServices())
		defer p.Close()
		_ = p.Load(c.Context)
		v := p.View(a.Session.User())
		view, ve = v, v.Error
	default:
		p := page.NewStudentDashboardPage(c.Context, a.StudentServices())
		defer p.Close()
		_ = p.Load(c.Context)
		v := p.View()
		view, ve = v, v.Error
	}
	if ve != nil {
		return failView(ve)
	}
	return printJSON(view)
}

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "administration",
		Before: func(c *cli.Context) error {
			_, err := requireRole(fromContext(c).Session, model.Admin)
			return err
		},
		Subcommands: []*cli.Command{
			{
				Name: "users",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "role"},
					&cli.StringFlag{Name: "search"},
					&cli.IntFlag{Name: "page"},
					&cli.IntFlag{Name: "limit"},
				},
				Action: func(c *cli.Context) error {
					list, err := fromContext(c).Services.Admin.Users(c.Context, model.UserFilter{
						Role:   model.UserRole(c.String("role")),
						Search: c.String("search"),
						Page:   c.Int("page"),
						Limit:  c.Int("limit"),
					})
					if err != nil {
						return fail(err, util.ContextLoad)
					}
					return printJSON(list)
				},
			},
			{
				Name:  "export-users",
				Usage: "write all users to an xlsx file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "users.xlsx"},
					&cli.StringFlag{Name: "role"},
				},
				Action: func(c *cli.Context) error {
					f, err := os.Create(c.String("out"))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					n, err := fromContext(c).Services.Admin.ExportUsers(c.Context, model.UserFilter{Role: model.UserRole(c.String("role"))}, f)
					if cerr := f.Close(); err == nil {
						err = cerr
					}
					if err != nil {
						_ = os.Remove(c.String("out"))
						return fail(err, util.ContextLoad)
					}
					return printJSON(map[string]interface{}{"file": c.String("out"), "users": n})
				},
			},
			{
				Name: "stats",
				Action: func(c *cli.Context) error {
					stats, err := fromContext(c).Services.Admin.Stats(c.Context)
					if err != nil {
						return fail(err, util.ContextLoad)
					}
					return printJSON(stats)
				},
			},
		},
	}
}

func themeCommand() *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "show or change the colour theme",
		Subcommands: []*cli.Command{
			{
				Name: "get",
				Action: func(c *cli.Context) error {
					t := fromContext(c).Theme
					return printJSON(map[string]theme.Preference{"preference": t.Preference(), "resolved": t.Resolved()})
				},
			},
			{
				Name:      "set",
				ArgsUsage: "<light|dark|system>",
				Action: func(c *cli.Context) error {
					pref, err := theme.ParsePreference(c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					t := fromContext(c).Theme
					if err := t.Set(pref); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					return printJSON(map[string]theme.Preference{"preference": t.Preference(), "resolved": t.Resolved()})
				},
			},
		},
	}
}

func serveAction(c *cli.Context) error {
	if err := fromContext(c).Serve(c.Context); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
