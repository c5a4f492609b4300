package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Student is the learner the feedback video addresses.
type Student struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Email              string `json:"email"`
	TechExperienceID   *int   `json:"tech_experience_id,omitempty"`
	EmploymentStatusID *int   `json:"employment_status_id,omitempty"`
}

// FullName returns "First Last".
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// ContextMap exposes the student to the mapping engine.
func (s *Student) ContextMap() map[string]interface{} {
	return map[string]interface{}{
		"first_name":           s.FirstName,
		"last_name":            s.LastName,
		"full_name":            s.FullName(),
		"email":                s.Email,
		"tech_experience_id":   intOrNil(s.TechExperienceID),
		"employment_status_id": intOrNil(s.EmploymentStatusID),
	}
}

// Cohort is the group of students a deployment belongs to.
type Cohort struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// ContextMap exposes the cohort to the mapping engine.
func (c *Cohort) ContextMap() map[string]interface{} {
	return map[string]interface{}{
		"id":         c.ID,
		"name":       c.Name,
		"start_date": c.StartDate.Format("2006-01-02"),
		"end_date":   c.EndDate.Format("2006-01-02"),
	}
}

// DeploymentPackage is the gradable package of work a deployment instantiates.
type DeploymentPackage struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ContextMap exposes the package to the mapping engine.
func (p *DeploymentPackage) ContextMap() map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
	}
}

// StudentDeploymentStep is one graded step within a component.
type StudentDeploymentStep struct {
	StepName     *string  `json:"step_name,omitempty"`
	Score        *float64 `json:"score,omitempty"`
	Grading      *string  `json:"grading,omitempty"`
	Objectives   *string  `json:"objectives,omitempty"`
	Instructions *string  `json:"instructions,omitempty"`
}

// StudentDeploymentComponent is one graded component with its steps.
type StudentDeploymentComponent struct {
	ID                int                     `json:"id"`
	ComponentCategory string                  `json:"component_category"`
	Score             *float64                `json:"score,omitempty"`
	Grading           *string                 `json:"grading,omitempty"`
	Steps             []StudentDeploymentStep `json:"steps"`
}

// StudentDeployment is one student's instance of a package, with the scores
// assigned to it.
type StudentDeployment struct {
	ID        int       `json:"id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	AccGrading  *string  `json:"acc_grading,omitempty"`
	AccScore    *float64 `json:"acc_score,omitempty"`
	OtdGrading  *string  `json:"otd_grading,omitempty"`
	OtdScore    *float64 `json:"otd_score,omitempty"`
	OptGrading  *string  `json:"opt_grading,omitempty"`
	OptScore    *float64 `json:"opt_score,omitempty"`
	FuncGrading *string  `json:"func_grading,omitempty"`
	FuncScore   *float64 `json:"func_score,omitempty"`

	PackageID  int                          `json:"package_id"`
	Components []StudentDeploymentComponent `json:"components"`
}

// ContextMap exposes the deployment to the mapping engine. Scores stay nil
// when ungraded so null-substituting transforms can see the absence.
func (d *StudentDeployment) ContextMap() map[string]interface{} {
	components := make([]interface{}, 0, len(d.Components))
	for _, c := range d.Components {
		components = append(components, map[string]interface{}{
			"component_category": c.ComponentCategory,
			"score":              floatOrNil(c.Score),
			"grading":            strOrNil(c.Grading),
		})
	}
	return map[string]interface{}{
		"id":           d.ID,
		"start_date":   d.StartDate.Format("2006-01-02"),
		"end_date":     d.EndDate.Format("2006-01-02"),
		"acc_grading":  strOrNil(d.AccGrading),
		"acc_score":    floatOrNil(d.AccScore),
		"otd_grading":  strOrNil(d.OtdGrading),
		"otd_score":    floatOrNil(d.OtdScore),
		"opt_grading":  strOrNil(d.OptGrading),
		"opt_score":    floatOrNil(d.OptScore),
		"func_grading": strOrNil(d.FuncGrading),
		"func_score":   floatOrNil(d.FuncScore),
		"package_id":   d.PackageID,
		"components":   components,
	}
}

// StudentDeploymentDetails bundles everything the script and payload layers
// need about one deployment.
type StudentDeploymentDetails struct {
	Student    Student           `json:"student"`
	Cohort     Cohort            `json:"cohort"`
	Deployment StudentDeployment `json:"deployment"`
	Package    DeploymentPackage `json:"package"`
}

// CohortComparison places one accuracy score within its cohort's
// distribution for the same package. Derived, never persisted.
type CohortComparison struct {
	TotalStudents        int     `json:"total_students"`
	StudentsBelowOrEqual int     `json:"students_below_or_equal"`
	CohortAvgAccScore    float64 `json:"cohort_avg_acc_score"`
	Percentile           float64 `json:"percentile"`
	Rank                 string  `json:"rank"`
}

// FormattedPercentile renders the percentile with one decimal place.
func (c *CohortComparison) FormattedPercentile() string {
	return fmt.Sprintf("%.1f", c.Percentile)
}

// ContextMap exposes the comparison to the mapping engine.
func (c *CohortComparison) ContextMap() map[string]interface{} {
	return map[string]interface{}{
		"total_students":          c.TotalStudents,
		"students_below_or_equal": c.StudentsBelowOrEqual,
		"cohort_avg_acc_score":    c.CohortAvgAccScore,
		"percentile":              c.Percentile,
		"formatted_percentile":    c.FormattedPercentile(),
		"rank":                    c.Rank,
	}
}

// ScriptPromptData is the complete dataset handed to script generation and,
// as a live object, to method_call mapping rules.
type ScriptPromptData struct {
	DeploymentDetails StudentDeploymentDetails `json:"deployment_details"`
	CohortComparison  *CohortComparison        `json:"cohort_comparison,omitempty"`
}

// SimpleComponentsText renders each component and its score as a bullet list.
func (p *ScriptPromptData) SimpleComponentsText() string {
	lines := make([]string, 0, len(p.DeploymentDetails.Deployment.Components))
	for _, comp := range p.DeploymentDetails.Deployment.Components {
		lines = append(lines, fmt.Sprintf("• %s %s", comp.ComponentCategory, scoreOrNA(comp.Score)))
	}
	return strings.Join(lines, "\n")
}

// SimpleStepsText renders every step grouped under its component.
func (p *ScriptPromptData) SimpleStepsText() string {
	var lines []string
	for _, comp := range p.DeploymentDetails.Deployment.Components {
		for _, step := range comp.Steps {
			lines = append(lines, fmt.Sprintf("  • %s: %s", strOrEmpty(step.StepName), scoreOrNA(step.Score)))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// TopAndBottomStepsText lists the highest and lowest scoring steps across all
// components. Unscored steps sort last.
func (p *ScriptPromptData) TopAndBottomStepsText(topN, bottomN int) string {
	type scoredStep struct {
		name   string
		score  *float64
		sortBy float64
	}

	var all []scoredStep
	for _, comp := range p.DeploymentDetails.Deployment.Components {
		for _, step := range comp.Steps {
			s := scoredStep{name: strOrEmpty(step.StepName), score: step.Score}
			if step.Score != nil {
				s.sortBy = *step.Score
			} else {
				s.sortBy = -1 << 30
			}
			all = append(all, s)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].sortBy > all[j].sortBy })

	top := all
	if len(top) > topN {
		top = top[:topN]
	}
	var bottom []scoredStep
	if len(all) > bottomN {
		bottom = all[len(all)-bottomN:]
	}

	lines := []string{"High Scoring Steps:"}
	for _, s := range top {
		lines = append(lines, fmt.Sprintf("  • %s: %s", s.name, scoreOrNA(s.score)))
	}
	lines = append(lines, "", "Low Scoring Steps:")
	for _, s := range bottom {
		lines = append(lines, fmt.Sprintf("  • %s: %s", s.name, scoreOrNA(s.score)))
	}
	return strings.Join(lines, "\n")
}

func scoreOrNA(score *float64) string {
	if score == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g", *score)
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func floatOrNil(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func intOrNil(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}
