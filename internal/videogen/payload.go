package videogen

import (
	"context"
	"fmt"

	"gradereel/api-gateway/internal/heygen"
	"gradereel/api-gateway/internal/mapping"
	"gradereel/api-gateway/models"
)

// Source-model names mapping rules may reference.
const (
	modelStudent          = "student"
	modelCohort           = "cohort"
	modelDeployment       = "student_deployment"
	modelPackage          = "deployment_package"
	modelCohortComparison = "cohort_comparison"
	modelScript           = "script"
)

// buildPayload resolves the template's mapping rules and merges the result
// with the fixed submission options. Locally mapped variables the provider
// template does not declare are dropped, so local template drift degrades
// instead of failing the submission.
func (s *Service) buildPayload(ctx context.Context, tmpl *models.VideoTemplate, script *models.Script, data *models.ScriptPromptData, callbackID string) (heygen.GeneratePayload, error) {
	rules, err := s.store.GetMappingRules(ctx, tmpl.ID)
	if err != nil {
		return heygen.GeneratePayload{}, fmt.Errorf("loading mapping rules: %w", err)
	}

	mctx := s.buildContext(rules, data, script)
	variables := s.engine.ResolveAll(rules, mctx)

	declared, err := s.provider.TemplateVariables(ctx, tmpl.HeygenTemplateID)
	if err != nil {
		return heygen.GeneratePayload{}, fmt.Errorf("fetching template variables: %w", err)
	}
	variables = s.filterVariables(variables, declared)

	dimension := heygen.Dimension720p
	if s.opts.Production {
		dimension = heygen.Dimension1080p
	}

	student := data.DeploymentDetails.Student
	title := fmt.Sprintf("%s - %s Feedback", student.FullName(), data.DeploymentDetails.Package.Name)

	return heygen.GeneratePayload{
		Test:          s.opts.TestMode,
		Caption:       s.opts.Caption,
		Title:         title,
		EnableSharing: s.opts.EnableSharing,
		IncludeGIF:    s.opts.IncludeGIF,
		CallbackID:    callbackID,
		FolderID:      s.opts.FolderID,
		BrandVoiceID:  s.opts.BrandVoiceID,
		Dimension:     dimension,
		Variables:     variables,
	}, nil
}

// buildContext registers only the domain objects the rules actually
// reference, so unreferenced objects are never serialized.
func (s *Service) buildContext(rules []models.MappingRule, data *models.ScriptPromptData, script *models.Script) *mapping.Context {
	needed := make(map[string]bool, len(rules))
	for _, rule := range rules {
		needed[rule.SourceModel] = true
	}

	mctx := mapping.NewContext()
	details := &data.DeploymentDetails

	if needed[modelStudent] {
		mctx.Register(modelStudent, &details.Student)
	}
	if needed[modelCohort] {
		mctx.Register(modelCohort, &details.Cohort)
	}
	if needed[modelDeployment] {
		mctx.Register(modelDeployment, &details.Deployment)
	}
	if needed[modelPackage] {
		mctx.Register(modelPackage, &details.Package)
	}
	if needed[modelCohortComparison] {
		if data.CohortComparison != nil {
			mctx.Register(modelCohortComparison, data.CohortComparison)
		} else {
			// No prior score to compare: rules against the comparison fall
			// through to their defaults instead of erroring.
			mctx.RegisterMap(modelCohortComparison, map[string]interface{}{})
		}
	}
	if needed[modelScript] && script != nil {
		mctx.Register(modelScript, script)
	}
	if needed[models.SourceModelSpecial] {
		mctx.RegisterSpecial("prompt_data", data)
	}
	return mctx
}

// filterVariables keeps only variables the provider template declares.
func (s *Service) filterVariables(variables map[string]string, declared []string) map[string]string {
	allowed := make(map[string]bool, len(declared))
	for _, name := range declared {
		allowed[name] = true
	}

	filtered := make(map[string]string, len(variables))
	for name, value := range variables {
		if allowed[name] {
			filtered[name] = value
			continue
		}
		s.log.Warnf("Dropping variable %q: not declared by the provider template", name)
	}
	return filtered
}
