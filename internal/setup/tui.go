package setup

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/forecast/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers holds the wizard inputs as typed.
type Answers struct {
	ClosedWonPath string
	PipelinePath  string
	SOQPath       string
	SOMPath       string
	SOWPath       string
	YoYCompare    string
	Plan          string
	FiscalStart   string
	ListenAddr    string
	TLSDomains    string
}

// DefaultAnswers seeds the wizard from the built-in defaults.
func DefaultAnswers() Answers {
	def := config.Default()
	return Answers{
		ClosedWonPath: "data/closed_won.csv",
		PipelinePath:  "data/pipeline.csv",
		SOQPath:       "data/changes_soq.csv",
		YoYCompare:    def.YoYCompare.String(),
		Plan:          def.Plan.String(),
		FiscalStart:   strconv.Itoa(int(def.FiscalQuarterStart)),
		ListenAddr:    def.ListenAddr,
	}
}

// Tmp converts the answers into the YAML form of the config. Empty optional change
// sets are left out.
func (a Answers) Tmp() config.ConfigTmp {
	tmp := config.Default().Tmp()
	tmp.ClosedWonPath = strings.TrimSpace(a.ClosedWonPath)
	tmp.PipelinePath = strings.TrimSpace(a.PipelinePath)
	tmp.Changes = map[string]string{"soq": strings.TrimSpace(a.SOQPath)}
	if p := strings.TrimSpace(a.SOMPath); p != "" {
		tmp.Changes["som"] = p
	}
	if p := strings.TrimSpace(a.SOWPath); p != "" {
		tmp.Changes["sow"] = p
	}
	tmp.YoYCompareStr = strings.TrimSpace(a.YoYCompare)
	tmp.PlanStr = strings.TrimSpace(a.Plan)
	tmp.FiscalQuarterStartMonth = a.FiscalStart
	tmp.ListenAddr = strings.TrimSpace(a.ListenAddr)
	tmp.TLSDomains = splitDomains(a.TLSDomains)
	return tmp
}

// Write validates the answers the same way the config loader does and saves them to path.
func Write(path string, a Answers) error {
	data, err := yaml.Marshal(a.Tmp())
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if _, err := config.Parse(data); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	a := DefaultAnswers()
	var confirm bool

	// step 1: welcome
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("FORECAST CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point the board at your CRM exports.\n"))

	// exports
	fmt.Println(stepStyle.Render("STEP 1: EXPORTS"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Closed won export").
				Description("CSV of deals won this quarter").
				Value(&a.ClosedWonPath).
				Validate(validateCSVPath),
			huh.NewInput().
				Title("Open pipeline export").
				Description("CSV of open deals with VP forecast").
				Value(&a.PipelinePath).
				Validate(validateCSVPath),
		),
	).Run()
	if err != nil {
		return err
	}

	// change sets
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FORECAST CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: PIPELINE CHANGES"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Changes since start of quarter").
				Value(&a.SOQPath).
				Validate(validateCSVPath),
			huh.NewInput().
				Title("Changes since start of month").
				Description("Optional").
				Value(&a.SOMPath).
				Validate(optional(validateCSVPath)),
			huh.NewInput().
				Title("Changes this week").
				Description("Optional").
				Value(&a.SOWPath).
				Validate(optional(validateCSVPath)),
		),
	).Run()
	if err != nil {
		return err
	}

	// references
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FORECAST CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: REFERENCES"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Year over year comparison").
				Description("ARR closed in the same quarter last year").
				Value(&a.YoYCompare).
				Validate(validateReference),
			huh.NewInput().
				Title("Plan").
				Description("ARR target for the quarter").
				Value(&a.Plan).
				Validate(validateReference),
			huh.NewSelect[string]().
				Title("Fiscal quarter starts in").
				Options(monthOptions()...).
				Value(&a.FiscalStart),
		),
	).Run()
	if err != nil {
		return err
	}

	// server
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FORECAST CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: DASHBOARD"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Description("host:port, e.g. :8080").
				Value(&a.ListenAddr).
				Validate(validateListenAddr),
			huh.NewInput().
				Title("TLS domains").
				Description("Comma separated, leave empty for plain HTTP").
				Value(&a.TLSDomains),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FORECAST CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	// show summary
	summary := fmt.Sprintf(
		"Closed won: %s\nPipeline: %s\nChanges (SOQ): %s\nY/Y: %s\nPlan: %s\nListen: %s\n",
		a.ClosedWonPath, a.PipelinePath, a.SOQPath, a.YoYCompare, a.Plan, a.ListenAddr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := Write(path, a); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nRun `forecast serve` to open the board.", path)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func monthOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, 12)
	for m := time.January; m <= time.December; m++ {
		opts = append(opts, huh.NewOption(m.String(), strconv.Itoa(int(m))))
	}
	return opts
}

func validateCSVPath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if !strings.EqualFold(filepath.Ext(s), ".csv") {
		return fmt.Errorf("must point to a .csv export")
	}
	return nil
}

func validateReference(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateListenAddr(s string) error {
	if _, _, err := net.SplitHostPort(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("must be host:port: %w", err)
	}
	return nil
}

func optional(validate func(string) error) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return validate(s)
	}
}

func splitDomains(s string) []string {
	var out []string
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
