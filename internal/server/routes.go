package server

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"nutriadvisor/internal/profile"
)

const downloadFilename = "my_nutrition_plan.txt"

// TemplateRenderer is a custom html/template renderer for Echo framework
type TemplateRenderer struct {
	templates *template.Template
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(LoggerMiddleware)

	e.Static("/static", "web/public")

	renderer := &TemplateRenderer{
		templates: template.Must(template.New("").
			Funcs(template.FuncMap{"has": hasString, "b64": encodePlan}).
			ParseGlob(s.templates)),
	}
	e.Renderer = renderer

	e.GET("/", s.renderFormHandler)
	e.POST("/plan", s.generatePlanHandler)
	e.POST("/plan/download", s.downloadPlanHandler)
	e.GET("/healthz", s.healthHandler)

	return e
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.Set("logger", &logger)

		return next(c)
	}
}

// requestLogger fetches the request-scoped logger set by LoggerMiddleware,
// falling back to the global logger.
func requestLogger(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get("logger").(*zerolog.Logger); ok {
		return l
	}
	return &log.Logger
}

/* ====================================================================
                          Page data
==================================================================== */

// formValues carries raw field values back into the form so a rejected
// submission keeps what the user typed.
type formValues struct {
	Age           string
	Gender        string
	Height        string
	Weight        string
	ActivityLevel string
	Goals         []string
	Medical       string
	Allergies     string
	Location      string
	Budget        string
}

func defaultFormValues() formValues {
	return formValues{
		Age:           "30",
		Height:        `5'10"`,
		Weight:        "160 lbs",
		Gender:        profile.Genders[0],
		ActivityLevel: "Moderately Active",
		Budget:        "Moderate",
	}
}

// formPage is the template payload for index.html.
type formPage struct {
	Genders        []string
	GoalOptions    []string
	ActivityLevels []string
	Budgets        []string
	MissingKeys    []string
	Error          string
	Form           formValues
}

// planPage is the template payload for plan.html. Plan is the raw pipeline
// output (it also feeds the download); PlanHTML is its markdown rendering,
// empty when rendering failed.
type planPage struct {
	Plan     string
	PlanHTML template.HTML
	Goals    string
	Profile  profile.UserProfile
}

func (s *Server) newFormPage(form formValues) formPage {
	return formPage{
		Genders:        profile.Genders,
		GoalOptions:    profile.GoalOptions,
		ActivityLevels: profile.ActivityLevels,
		Budgets:        profile.Budgets,
		MissingKeys:    s.cfg.MissingCredentials(),
		Form:           form,
	}
}

/* ====================================================================
                          Handlers
==================================================================== */

// renderFormHandler serves the intake form with its default values.
func (s *Server) renderFormHandler(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", s.newFormPage(defaultFormValues()))
}

// generatePlanHandler validates the submitted profile, runs the pipeline
// synchronously, and renders either the plan page or the form with a
// single error banner. The orchestrator is never invoked for an invalid
// submission.
func (s *Server) generatePlanHandler(c echo.Context) error {
	logger := requestLogger(c)

	p, form, bindErr := bindProfile(c)
	page := s.newFormPage(form)

	if bindErr != "" {
		page.Error = bindErr
		return c.Render(http.StatusBadRequest, "index.html", page)
	}
	if err := p.Validate(); err != nil {
		page.Error = "Please select at least one nutrition goal."
		return c.Render(http.StatusBadRequest, "index.html", page)
	}

	p.Normalize()

	logger.Info().Msgf("Starting nutrition plan generation for goals: %s", p.GoalsLine())

	plan, err := s.planner.Generate(c.Request().Context(), logger, p)
	if err != nil {
		logger.Error().Err(err).Msg("Plan generation failed")
		page.Error = "An error occurred while generating your nutrition plan. Please try again."
		return c.Render(http.StatusInternalServerError, "index.html", page)
	}

	logger.Info().Msg("Nutrition plan generated successfully")

	planHTML, err := renderMarkdown(plan)
	if err != nil {
		// Display failure must not discard the finished plan; the page
		// falls back to the raw text.
		logger.Error().Err(err).Msg("Could not render plan markdown")
	}

	return c.Render(http.StatusOK, "plan.html", planPage{
		Plan:     plan,
		PlanHTML: planHTML,
		Goals:    p.GoalsLine(),
		Profile:  p,
	})
}

// downloadPlanHandler echoes the rendered plan text back as a file
// attachment. The plan travels base64-encoded because browsers normalize
// line breaks in form field values to CRLF; decoding restores the exact
// bytes the plan page rendered.
func (s *Server) downloadPlanHandler(c echo.Context) error {
	content, err := base64.StdEncoding.DecodeString(c.FormValue("plan"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid download payload"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+downloadFilename+`"`)
	return c.Blob(http.StatusOK, "text/markdown", content)
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

/* ====================================================================
                          Helpers
==================================================================== */

// bindProfile reads the submitted form into a UserProfile. It returns the
// raw values alongside so error pages can repopulate the form, and a
// user-facing message when a field cannot be read.
func bindProfile(c echo.Context) (profile.UserProfile, formValues, string) {
	params, err := c.FormParams()
	if err != nil {
		return profile.UserProfile{}, defaultFormValues(), "Could not read the submitted form. Please try again."
	}

	form := formValues{
		Age:           c.FormValue("age"),
		Gender:        c.FormValue("gender"),
		Height:        c.FormValue("height"),
		Weight:        c.FormValue("weight"),
		ActivityLevel: c.FormValue("activity_level"),
		Goals:         params["goals"],
		Medical:       c.FormValue("medical_conditions"),
		Allergies:     c.FormValue("allergies"),
		Location:      c.FormValue("location"),
		Budget:        c.FormValue("budget"),
	}

	age, err := strconv.Atoi(form.Age)
	if err != nil || age < 1 || age > 120 {
		return profile.UserProfile{}, form, "Please enter an age between 1 and 120."
	}

	p := profile.UserProfile{
		Age:               age,
		Gender:            form.Gender,
		Height:            form.Height,
		Weight:            form.Weight,
		ActivityLevel:     form.ActivityLevel,
		Goals:             form.Goals,
		MedicalConditions: form.Medical,
		Allergies:         form.Allergies,
		Location:          form.Location,
		Budget:            form.Budget,
	}

	return p, form, ""
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderMarkdown converts the plan text to HTML. Raw HTML in the model's
// output stays escaped by goldmark's defaults.
func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// encodePlan is the template helper carrying the plan into the download
// form without exposing it to form-entry newline normalization.
func encodePlan(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// hasString reports whether v is in list; used by the form template to
// re-check submitted goals.
func hasString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
