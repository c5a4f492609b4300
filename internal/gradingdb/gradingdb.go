// Package gradingdb reads grading data from the institutional MySQL
// database. Access is strictly read-only; all writable state lives in the
// application store.
package gradingdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"gradereel/api-gateway/models"
)

// Client wraps the grading database connection pool.
type Client struct {
	db  *sql.DB
	log *logrus.Logger
}

// New opens a connection pool against the grading database. The DSN must
// include parseTime=true so DATE columns scan into time.Time.
func New(dsn string, log *logrus.Logger) (*Client, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening grading database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging grading database: %w", err)
	}
	return &Client{db: db, log: log}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

const deploymentQuery = `
SELECT
    s.first_name,
    s.last_name,
    s.email,
    s.tech_experience_id,
    s.employment_status_id,
    c.id,
    c.name,
    c.start_date,
    c.end_date,
    d.id,
    d.start_date,
    d.end_date,
    d.acc_grading,
    d.acc_score,
    d.otd_grading,
    d.otd_score,
    d.opt_grading,
    d.opt_score,
    d.func_grading,
    d.func_score,
    dp.id,
    dp.name,
    CONCAT(dp.objectives, '\n\n', COALESCE(dp.notes, ''))
FROM itp_student_deployments d
JOIN itp_students s ON d.student_id = s.id
JOIN itp_cohorts c ON s.cohort_id = c.id
JOIN itp_deployment_packages dp ON d.deployment_package_id = dp.id
WHERE d.id = ?`

const componentsQuery = `
SELECT
    sdc.id,
    dc.title,
    sdc.score,
    sdc.grading
FROM itp_student_deployment_components sdc
JOIN itp_deployment_components dc ON sdc.deployment_component_id = dc.id
WHERE sdc.student_deployment_id = ?
ORDER BY sdc.id`

const stepsQuery = `
SELECT
    sds.student_deployment_component_id,
    ps.objective,
    sds.score,
    sds.grading,
    sds.objectives,
    sds.instructions
FROM itp_student_deployment_steps sds
LEFT JOIN itp_deployment_package_steps ps ON sds.deployment_package_step_id = ps.id
WHERE sds.student_deployment_id = ?
ORDER BY sds.id`

const cohortScoresQuery = `
SELECT d.acc_score
FROM itp_student_deployments d
JOIN itp_students s ON d.student_id = s.id
WHERE s.cohort_id = ?
  AND d.deployment_package_id = ?
  AND d.acc_score IS NOT NULL`

// DeploymentDetails fetches the full grading picture for one student
// deployment. Returns models.ErrNotFound when the deployment does not exist.
func (c *Client) DeploymentDetails(ctx context.Context, deploymentID int) (*models.StudentDeploymentDetails, error) {
	details := &models.StudentDeploymentDetails{}

	var techExperienceID, employmentStatusID sql.NullInt64
	var accGrading, otdGrading, optGrading, funcGrading sql.NullString
	var accScore, otdScore, optScore, funcScore sql.NullFloat64

	err := c.db.QueryRowContext(ctx, deploymentQuery, deploymentID).Scan(
		&details.Student.FirstName,
		&details.Student.LastName,
		&details.Student.Email,
		&techExperienceID,
		&employmentStatusID,
		&details.Cohort.ID,
		&details.Cohort.Name,
		&details.Cohort.StartDate,
		&details.Cohort.EndDate,
		&details.Deployment.ID,
		&details.Deployment.StartDate,
		&details.Deployment.EndDate,
		&accGrading,
		&accScore,
		&otdGrading,
		&otdScore,
		&optGrading,
		&optScore,
		&funcGrading,
		&funcScore,
		&details.Package.ID,
		&details.Package.Name,
		&details.Package.Description,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying deployment %d: %w", deploymentID, err)
	}

	details.Student.TechExperienceID = nullableInt(techExperienceID)
	details.Student.EmploymentStatusID = nullableInt(employmentStatusID)
	details.Deployment.AccGrading = nullableString(accGrading)
	details.Deployment.AccScore = nullableFloat(accScore)
	details.Deployment.OtdGrading = nullableString(otdGrading)
	details.Deployment.OtdScore = nullableFloat(otdScore)
	details.Deployment.OptGrading = nullableString(optGrading)
	details.Deployment.OptScore = nullableFloat(optScore)
	details.Deployment.FuncGrading = nullableString(funcGrading)
	details.Deployment.FuncScore = nullableFloat(funcScore)
	details.Deployment.PackageID = details.Package.ID

	components, err := c.components(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	details.Deployment.Components = components

	return details, nil
}

func (c *Client) components(ctx context.Context, deploymentID int) ([]models.StudentDeploymentComponent, error) {
	rows, err := c.db.QueryContext(ctx, componentsQuery, deploymentID)
	if err != nil {
		return nil, fmt.Errorf("querying components for deployment %d: %w", deploymentID, err)
	}
	defer rows.Close()

	byID := make(map[int]int) // component row id -> index
	var components []models.StudentDeploymentComponent
	for rows.Next() {
		var comp models.StudentDeploymentComponent
		var score sql.NullFloat64
		var grading sql.NullString
		if err := rows.Scan(&comp.ID, &comp.ComponentCategory, &score, &grading); err != nil {
			return nil, fmt.Errorf("scanning component row: %w", err)
		}
		comp.Score = nullableFloat(score)
		comp.Grading = nullableString(grading)
		byID[comp.ID] = len(components)
		components = append(components, comp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading component rows: %w", err)
	}

	if err := c.attachSteps(ctx, deploymentID, byID, components); err != nil {
		return nil, err
	}
	return components, nil
}

func (c *Client) attachSteps(ctx context.Context, deploymentID int, byID map[int]int, components []models.StudentDeploymentComponent) error {
	rows, err := c.db.QueryContext(ctx, stepsQuery, deploymentID)
	if err != nil {
		return fmt.Errorf("querying steps for deployment %d: %w", deploymentID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var componentID int
		var step models.StudentDeploymentStep
		var name, grading, objectives, instructions sql.NullString
		var score sql.NullFloat64
		if err := rows.Scan(&componentID, &name, &score, &grading, &objectives, &instructions); err != nil {
			return fmt.Errorf("scanning step row: %w", err)
		}
		step.StepName = nullableString(name)
		step.Score = nullableFloat(score)
		step.Grading = nullableString(grading)
		step.Objectives = nullableString(objectives)
		step.Instructions = nullableString(instructions)

		idx, ok := byID[componentID]
		if !ok {
			// Step rows can reference components graded out of band; they
			// carry no component context we could attach them to.
			c.log.Warnf("Step for deployment %d references unknown component %d", deploymentID, componentID)
			continue
		}
		components[idx].Steps = append(components[idx].Steps, step)
	}
	return rows.Err()
}

// CohortScores returns every graded accuracy score in the cohort for the
// given package. Used to derive the cohort comparison.
func (c *Client) CohortScores(ctx context.Context, cohortID, packageID int) ([]float64, error) {
	rows, err := c.db.QueryContext(ctx, cohortScoresQuery, cohortID, packageID)
	if err != nil {
		return nil, fmt.Errorf("querying cohort scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning cohort score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
