package echoapi

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/schoolerp/erp/core"
	"github.com/schoolerp/erp/core/grading"
	"github.com/schoolerp/erp/core/reportcard"
)

type reportcardApi struct {
	svc      reportcard.ServiceInterface
	validate *validator.Validate
}

func registerReportcardAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc reportcard.ServiceInterface,
	validate *validator.Validate,
) {
	api := reportcardApi{
		svc:      svc,
		validate: validate,
	}

	// every route below needs a school member; admin-only routes add adminMiddleware
	sg := g.Group("", jwt, staffMiddleware())
	admin := adminMiddleware()

	sg.GET("/school", api.retrieveSchool)
	sg.POST("/report-cards/render", api.render)

	sg.GET("/students", api.queryStudents)
	sg.POST("/students", api.createStudent, admin)
	sg.GET("/students/:id", api.retrieveStudent)
	sg.PUT("/students/:id/attendance/daily", api.saveDailyAttendance)

	sg.GET("/exam-groups", api.queryExamGroups)
	sg.POST("/exam-groups", api.createExamGroup, admin)
	sg.GET("/exam-groups/:id", api.retrieveExamGroup)
	sg.PUT("/exam-groups/:id/marks", api.saveMarks)
	sg.POST("/exam-groups/:id/reports", api.generate, admin)

	sg.PUT("/attendance/monthly", api.saveMonthlyAttendance)

	sg.GET("/grading-scales/:type", api.retrieveGradingScale)
	sg.PUT("/grading-scales/:type", api.saveGradingScale, admin)

	sg.GET("/reports", api.queryReports)
	sg.GET("/reports/:id", api.retrieveReport)
	sg.GET("/reports/:id/html", api.reportHTML)
	sg.POST("/reports/:id/publish", api.publish, admin)
	sg.POST("/reports/:id/distribute", api.distribute, admin)
}

// Handlers

// render renders a report card out of a self-contained Input, nothing is stored.
func (api *reportcardApi) render(ctx echo.Context) error {
	var in reportcard.Input
	if err := ctx.Bind(&in); err != nil {
		return errors.Wrap(err, "binding to Input")
	}
	if err := in.Validate(api.validate); err != nil {
		return err
	}

	rendered, err := api.svc.Render(in)
	if err != nil {
		return errors.Wrap(err, "rendering report card")
	}
	return sendHTML(ctx, rendered)
}

func (api *reportcardApi) retrieveSchool(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	school, err := api.svc.GetSchool(ctx.Request().Context(), sess.SchoolID)
	if err != nil {
		return errors.Wrap(err, "getting school")
	}
	return ctx.JSON(http.StatusOK, school)
}

// Students

func (api *reportcardApi) createStudent(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data reportcard.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stu, err := api.svc.CreateStudent(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (api *reportcardApi) queryStudents(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.QueryStudents(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []reportcard.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *reportcardApi) retrieveStudent(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	stu, err := api.svc.GetStudent(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *reportcardApi) saveDailyAttendance(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data reportcard.DailyAttendanceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DailyAttendanceRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.SaveDailyAttendance(ctx.Request().Context(), sess, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "saving daily attendance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

// Exam groups

func (api *reportcardApi) createExamGroup(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data reportcard.NewExamGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExamGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	eg, err := api.svc.CreateExamGroup(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "creating exam group")
	}
	return ctx.JSON(http.StatusCreated, eg)
}

func (api *reportcardApi) queryExamGroups(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var filter reportcard.ExamGroupFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []reportcard.ExamGroup{})
	}
	filter.Clean()

	groups, err := api.svc.QueryExamGroups(ctx.Request().Context(), sess, filter)
	if err != nil {
		return errors.Wrap(err, "querying exam groups")
	}
	if groups == nil {
		groups = []reportcard.ExamGroup{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *reportcardApi) retrieveExamGroup(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	eg, err := api.svc.GetExamGroup(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting exam group")
	}
	return ctx.JSON(http.StatusOK, eg)
}

func (api *reportcardApi) saveMarks(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data reportcard.MarksRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarksRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	marks, err := api.svc.SaveMarks(ctx.Request().Context(), sess, ctx.Param("id"), data.Marks)
	if err != nil {
		return errors.Wrap(err, "saving marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}

// generate (re)generates the reports of an exam group.
func (api *reportcardApi) generate(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data reportcard.GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}

	reports, err := api.svc.Generate(ctx.Request().Context(), sess, ctx.Param("id"), data.StudentIDs...)
	if err != nil {
		return errors.Wrap(err, "generating reports")
	}
	if reports == nil {
		reports = []reportcard.Report{}
	}
	return ctx.JSON(http.StatusCreated, reports)
}

// Attendance

func (api *reportcardApi) saveMonthlyAttendance(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data reportcard.AttendanceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendanceRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	records, err := api.svc.SaveMonthlyAttendance(ctx.Request().Context(), sess, data.Records)
	if err != nil {
		return errors.Wrap(err, "saving monthly attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

// Grading scales

func (api *reportcardApi) retrieveGradingScale(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	scale, err := api.svc.GetGradingScale(ctx.Request().Context(), sess, ctx.Param("type"))
	if err != nil {
		return errors.Wrap(err, "getting grading scale")
	}
	return ctx.JSON(http.StatusOK, scale)
}

func (api *reportcardApi) saveGradingScale(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	assessmentType := strings.ToUpper(core.CleanString(ctx.Param("type")))
	if !grading.IsAssessmentType(assessmentType) {
		return errHttpNotFound
	}

	var data grading.Scale
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Scale")
	}
	data.AssessmentType = assessmentType
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	scale, err := api.svc.SaveGradingScale(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "saving grading scale")
	}
	return ctx.JSON(http.StatusOK, scale)
}

// Reports

func (api *reportcardApi) queryReports(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var filter reportcard.ReportFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []reportcard.Report{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	reports, err := api.svc.QueryReports(ctx.Request().Context(), sess, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying reports")
	}
	if reports == nil {
		reports = []reportcard.Report{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *reportcardApi) retrieveReport(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	rep, err := api.svc.GetReport(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportcardApi) reportHTML(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	rendered, err := api.svc.Document(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rendering report")
	}
	return sendHTML(ctx, rendered)
}

func (api *reportcardApi) publish(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	rep, err := api.svc.Publish(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "publishing report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportcardApi) distribute(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	rep, err := api.svc.Distribute(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "distributing report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

// sendHTML writes a rendered report card; `?download=true` turns it into an attachment.
func sendHTML(ctx echo.Context, rendered reportcard.Rendered) error {
	if download, _ := strconv.ParseBool(ctx.QueryParam("download")); download {
		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": rendered.Filename})
		if disposition == "" {
			disposition = "attachment"
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	}
	return ctx.HTMLBlob(http.StatusOK, rendered.HTML)
}
