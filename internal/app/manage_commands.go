package app

import (
	"fmt"
	"time"

	"lms_client/internal/model"
	"lms_client/internal/util"

	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

// staffOnly 课程和班级的管理命令只对教师和管理员开放
func staffOnly(c *cli.Context) error {
	_, err := requireRole(fromContext(c).Session, model.Teacher, model.Admin)
	return err
}

func signedInOnly(c *cli.Context) error {
	_, err := requireRole(fromContext(c).Session)
	return err
}

func requireArgs(c *cli.Context, names ...string) ([]string, error) {
	if c.NArg() < len(names) {
		return nil, cli.Exit(fmt.Sprintf("missing <%s>", names[c.NArg()]), 1)
	}
	return c.Args().Slice(), nil
}

func courseInputFlags(titleRequired bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Required: titleRequired},
		&cli.StringFlag{Name: "short-description"},
		&cli.StringFlag{Name: "description"},
		&cli.StringFlag{Name: "category"},
		&cli.StringFlag{Name: "level", Usage: "beginner, intermediate or advanced"},
		&cli.Float64Flag{Name: "price"},
		&cli.StringFlag{Name: "thumbnail"},
		&cli.StringSliceFlag{Name: "tag"},
	}
}

// courseInputFromFlags 只带上命令行里出现的字段，更新时不会把其余字段清空
func courseInputFromFlags(c *cli.Context) model.CourseInput {
	in := model.CourseInput{
		Title:            c.String("title"),
		ShortDescription: c.String("short-description"),
		Description:      c.String("description"),
		Category:         c.String("category"),
		Level:            model.CourseLevel(c.String("level")),
		Thumbnail:        c.String("thumbnail"),
		Tags:             c.StringSlice("tag"),
	}
	if c.IsSet("price") {
		price := c.Float64("price")
		in.Price = &price
	}
	return in
}

func courseCreateCommand() *cli.Command {
	return &cli.Command{
		Name:   "create",
		Usage:  "create a draft course",
		Flags:  courseInputFlags(true),
		Before: staffOnly,
		Action: func(c *cli.Context) error {
			course, err := fromContext(c).Services.Courses.Create(c.Context, courseInputFromFlags(c))
			if err != nil {
				return fail(err, util.ContextMutation)
			}
			return printJSON(course)
		},
	}
}

func courseUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		ArgsUsage: "<course-id>",
		Flags:     courseInputFlags(false),
		Before:    staffOnly,
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "course-id")
			if err != nil {
				return err
			}
			course, err := fromContext(c).Services.Courses.Update(c.Context, id, courseInputFromFlags(c))
			if err != nil {
				return fail(err, util.ContextMutation)
			}
			return printJSON(course)
		},
	}
}

func courseDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		ArgsUsage: "<course-id>",
		Before:    staffOnly,
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "course-id")
			if err != nil {
				return err
			}
			if err := fromContext(c).Services.Courses.Delete(c.Context, id); err != nil {
				return fail(err, util.ContextMutation)
			}
			return printJSON(map[string]string{"deleted": id})
		},
	}
}

func courseStatsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "show enrollment and completion figures for a course",
		ArgsUsage: "<course-id>",
		Before:    staffOnly,
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "course-id")
			if err != nil {
				return err
			}
			stats, err := fromContext(c).Services.Analytics.CourseStats(c.Context, id)
			if err != nil {
				return fail(err, util.ContextLoad)
			}
			return printJSON(stats)
		},
	}
}

func lessonsCommand() *cli.Command {
	return &cli.Command{
		Name:  "lessons",
		Usage: "list, reorder or complete lessons",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				ArgsUsage: "<course-id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "course-id")
					if err != nil {
						return err
					}
					lessons, err := fromContext(c).Services.Lessons.List(c.Context, id)
					if err != nil {
						return fail(err, util.ContextLoad)
					}
					return printJSON(lessons)
				},
			},
			{
				Name:      "reorder",
				Usage:     "set the lesson order to the given ids",
				ArgsUsage: "<course-id> <lesson-id>...",
				Before:    staffOnly,
				Action: func(c *cli.Context) error {
					args, err := requireArgs(c, "course-id", "lesson-id")
					if err != nil {
						return err
					}
					courseID, ids := args[0], args[1:]
					if err := fromContext(c).Services.Lessons.Reorder(c.Context, courseID, ids); err != nil {
						return fail(err, util.ContextMutation)
					}
					return printJSON(map[string]interface{}{"course": courseID, "order": ids})
				},
			},
			{
				Name:      "complete",
				Usage:     "mark a lesson complete on an enrollment",
				ArgsUsage: "<enrollment-id> <lesson-id>",
				Before:    signedInOnly,
				Action: func(c *cli.Context) error {
					args, err := requireArgs(c, "enrollment-id", "lesson-id")
					if err != nil {
						return err
					}
					e, err := fromContext(c).Services.Lessons.MarkComplete(c.Context, args[0], args[1])
					if err != nil {
						return fail(err, util.ContextMutation)
					}
					return printJSON(e)
				},
			},
		},
	}
}

func enrollmentsCommand() *cli.Command {
	return &cli.Command{
		Name:   "enrollments",
		Usage:  "list, update or drop enrollments",
		Before: signedInOnly,
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Action: func(c *cli.Context) error {
					list, err := fromContext(c).Services.Enrollments.MyEnrollments(c.Context)
					if err != nil {
						return fail(err, util.ContextLoad)
					}
					return printJSON(list)
				},
			},
			{
				Name:      "progress",
				ArgsUsage: "<enrollment-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "lesson", Required: true},
					&cli.BoolFlag{Name: "completed", Value: true},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "enrollment-id")
					if err != nil {
						return err
					}
					e, err := fromContext(c).Services.Enrollments.UpdateProgress(c.Context, id, model.ProgressInput{
						LessonID:  c.String("lesson"),
						Completed: c.Bool("completed"),
					})
					if err != nil {
						return fail(err, util.ContextMutation)
					}
					return printJSON(e)
				},
			},
			{
				Name:      "drop",
				ArgsUsage: "<enrollment-id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "enrollment-id")
					if err != nil {
						return err
					}
					if err := fromContext(c).Services.Enrollments.Drop(c.Context, id); err != nil {
						return fail(err, util.ContextMutation)
					}
					return printJSON(map[string]string{"dropped": id})
				},
			},
		},
	}
}

func certificateGenerateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "issue the certificate for a completed enrollment",
		ArgsUsage: "<enrollment-id>",
		Before:    signedInOnly,
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "enrollment-id")
			if err != nil {
				return err
			}
			cert, err := fromContext(c).Services.Certificates.Generate(c.Context, id)
			if err != nil {
				return fail(err, util.ContextMutation)
			}
			return printJSON(cert)
		},
	}
}

// 验证证书编号无需登录
func certificateVerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		ArgsUsage: "<certificate-number>",
		Action: func(c *cli.Context) error {
			number, err := requireArg(c, "certificate-number")
			if err != nil {
				return err
			}
			v, err := fromContext(c).Services.Certificates.Verify(c.Context, number)
			if err != nil {
				return fail(err, util.ContextLoad)
			}
			return printJSON(v)
		},
	}
}

func batchInputFlags(create bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Required: create},
		&cli.StringFlag{Name: "description"},
		&cli.StringFlag{Name: "course", Required: create},
		&cli.StringFlag{Name: "status", Usage: "upcoming, active, completed or archived"},
		&cli.StringFlag{Name: "start", Usage: "start date, " + dateLayout},
		&cli.StringFlag{Name: "end", Usage: "end date, " + dateLayout},
		&cli.IntFlag{Name: "capacity"},
		&cli.StringSliceFlag{Name: "instructor"},
	}
}

func parseDateFlag(c *cli.Context, name string) (*time.Time, error) {
	if !c.IsSet(name) {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, c.String(name))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("--%s: expected %s", name, dateLayout), 1)
	}
	return &t, nil
}

func batchInputFromFlags(c *cli.Context) (model.BatchInput, error) {
	in := model.BatchInput{
		Name:        c.String("name"),
		Description: c.String("description"),
		Course:      c.String("course"),
		Status:      model.BatchStatus(c.String("status")),
		Instructors: c.StringSlice("instructor"),
	}
	var err error
	if in.StartDate, err = parseDateFlag(c, "start"); err != nil {
		return in, err
	}
	if in.EndDate, err = parseDateFlag(c, "end"); err != nil {
		return in, err
	}
	if c.IsSet("capacity") {
		capacity := c.Int("capacity")
		in.Capacity = &capacity
	}
	return in, nil
}

func batchCreateCommand() *cli.Command {
	return &cli.Command{
		Name:   "create",
		Flags:  batchInputFlags(true),
		Before: staffOnly,
		Action: func(c *cli.Context) error {
			in, err := batchInputFromFlags(c)
			if err != nil {
				return err
			}
			b, err := fromContext(c).Services.Batches.Create(c.Context, in)
			if err != nil {
				return fail(err, util.ContextMutation)
			}
			return printJSON(b)
		},
	}
}

func batchUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		ArgsUsage: "<batch-id>",
		Flags:     batchInputFlags(false),
		Before:    staffOnly,
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "batch-id")
			if err != nil {
				return err
			}
			in, err := batchInputFromFlags(c)
			if err != nil {
				return err
			}
			b, err := fromContext(c).Services.Batches.Update(c.Context, id, in)
			if err != nil {
				return fail(err, util.ContextMutation)
			}
			return printJSON(b)
		},
	}
}

func batchDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		ArgsUsage: "<batch-id>",
		Before:    staffOnly,
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "batch-id")
			if err != nil {
				return err
			}
			if err := fromContext(c).Services.Batches.Delete(c.Context, id); err != nil {
				return fail(err, util.ContextMutation)
			}
			return printJSON(map[string]string{"deleted": id})
		},
	}
}
