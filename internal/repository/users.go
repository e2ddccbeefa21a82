package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/megak-dev/headhunter/backend/internal/domain"
)

var userColumnList = []string{
	"id", "email", "password_hash", "first_name", "last_name", "role", "account_blocked", "avatar",
	"activation_link", "reset_password_link", "created_at", "version",
	"course_completion", "course_engagement", "project_degree", "team_project_degree",
	"bonus_project_urls", "expected_type_work", "expected_contract_type", "target_work_city",
	"expected_salary", "months_of_commercial_exp", "can_take_apprenticeship", "student_status",
	"company", "max_reserved_students",
}

var userColumns = strings.Join(userColumnList, ", ")

type rowScanner interface {
	Scan(dst ...any) error
}

// 学员和 HR 的扩展字段在表中都是可空列，根据 role 决定组装哪一份资料
func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}

	var (
		activationLink        sql.NullString
		resetPasswordLink     sql.NullString
		courseCompletion      sql.NullInt32
		courseEngagement      sql.NullInt32
		projectDegree         sql.NullInt32
		teamProjectDegree     sql.NullInt32
		bonusProjectUrls      sql.NullString
		expectedTypeWork      sql.NullString
		expectedContractType  sql.NullString
		targetWorkCity        sql.NullString
		expectedSalary        sql.NullFloat64
		monthsOfCommercialExp sql.NullInt32
		canTakeApprenticeship sql.NullBool
		studentStatus         sql.NullString
		company               sql.NullString
		maxReservedStudents   sql.NullInt32
	)

	dst := []any{
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Role, &user.AccountBlocked, &user.Avatar,
		&activationLink, &resetPasswordLink, &user.CreatedAt, &user.Version,
		&courseCompletion, &courseEngagement, &projectDegree, &teamProjectDegree,
		&bonusProjectUrls, &expectedTypeWork, &expectedContractType, &targetWorkCity,
		&expectedSalary, &monthsOfCommercialExp, &canTakeApprenticeship, &studentStatus,
		&company, &maxReservedStudents,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if activationLink.Valid {
		user.ActivationLink = &activationLink.String
	}
	if resetPasswordLink.Valid {
		user.ResetPasswordLink = &resetPasswordLink.String
	}

	switch user.Role {
	case domain.RoleStudent:
		profile := &domain.StudentProfile{
			CourseCompletion:      courseCompletion.Int32,
			CourseEngagement:      courseEngagement.Int32,
			ProjectDegree:         projectDegree.Int32,
			TeamProjectDegree:     teamProjectDegree.Int32,
			ExpectedTypeWork:      domain.TypeWork(expectedTypeWork.String),
			ExpectedContractType:  domain.ContractType(expectedContractType.String),
			TargetWorkCity:        targetWorkCity.String,
			ExpectedSalary:        expectedSalary.Float64,
			MonthsOfCommercialExp: monthsOfCommercialExp.Int32,
			CanTakeApprenticeship: canTakeApprenticeship.Bool,
			Status:                domain.StudentStatus(studentStatus.String),
		}
		if bonusProjectUrls.Valid && bonusProjectUrls.String != "" {
			profile.BonusProjectUrls = strings.Split(bonusProjectUrls.String, ",")
		}
		user.Student = profile
	case domain.RoleHR:
		user.HR = &domain.HRProfile{
			Company:             company.String,
			MaxReservedStudents: maxReservedStudents.Int32,
		}
	}

	return user, nil
}

// 插入和更新语句中与 role 对应的可空参数
func userProfileArgs(user *domain.User) []any {
	var (
		courseCompletion      any
		courseEngagement      any
		projectDegree         any
		teamProjectDegree     any
		bonusProjectUrls      any
		expectedTypeWork      any
		expectedContractType  any
		targetWorkCity        any
		expectedSalary        any
		monthsOfCommercialExp any
		canTakeApprenticeship any
		studentStatus         any
		company               any
		maxReservedStudents   any
	)

	if user.Student != nil {
		courseCompletion = user.Student.CourseCompletion
		courseEngagement = user.Student.CourseEngagement
		projectDegree = user.Student.ProjectDegree
		teamProjectDegree = user.Student.TeamProjectDegree
		bonusProjectUrls = strings.Join(user.Student.BonusProjectUrls, ",")
		expectedTypeWork = string(user.Student.ExpectedTypeWork)
		expectedContractType = string(user.Student.ExpectedContractType)
		targetWorkCity = user.Student.TargetWorkCity
		expectedSalary = user.Student.ExpectedSalary
		monthsOfCommercialExp = user.Student.MonthsOfCommercialExp
		canTakeApprenticeship = user.Student.CanTakeApprenticeship
		studentStatus = string(user.Student.Status)
	}
	if user.HR != nil {
		company = user.HR.Company
		maxReservedStudents = user.HR.MaxReservedStudents
	}

	return []any{
		courseCompletion, courseEngagement, projectDegree, teamProjectDegree,
		bonusProjectUrls, expectedTypeWork, expectedContractType, targetWorkCity,
		expectedSalary, monthsOfCommercialExp, canTakeApprenticeship, studentStatus,
		company, maxReservedStudents,
	}
}

func (r *Repository) GetUserByID(id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetUserByEmail(email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE email = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, query, email))
}

func (r *Repository) GetUserByActivationLink(link string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE activation_link = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, query, link))
}

func (r *Repository) CreateUser(user *domain.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, role, account_blocked, avatar,
			activation_link, reset_password_link,
			course_completion, course_engagement, project_degree, team_project_degree,
			bonus_project_urls, expected_type_work, expected_contract_type, target_work_city,
			expected_salary, months_of_commercial_exp, can_take_apprenticeship, student_status,
			company, max_reserved_students
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Role, user.AccountBlocked, user.Avatar,
		user.ActivationLink, user.ResetPasswordLink,
	}
	args = append(args, userProfileArgs(user)...)

	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.CreatedAt, &user.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateUser(user *domain.User) error {
	query := `
		UPDATE users
		SET
			email = $1,
			password_hash = $2,
			first_name = $3,
			last_name = $4,
			role = $5,
			account_blocked = $6,
			avatar = $7,
			activation_link = $8,
			reset_password_link = $9,
			course_completion = $10,
			course_engagement = $11,
			project_degree = $12,
			team_project_degree = $13,
			bonus_project_urls = $14,
			expected_type_work = $15,
			expected_contract_type = $16,
			target_work_city = $17,
			expected_salary = $18,
			months_of_commercial_exp = $19,
			can_take_apprenticeship = $20,
			student_status = $21,
			company = $22,
			max_reserved_students = $23,
			version = version + 1
		WHERE id = $24 AND version = $25
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Role, user.AccountBlocked, user.Avatar,
		user.ActivationLink, user.ResetPasswordLink,
	}
	args = append(args, userProfileArgs(user)...)
	args = append(args, user.ID, user.Version)

	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteUser(id string) error {
	query := `
		DELETE FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) CheckEmailIfExists(email string) (bool, error) {
	isExists := false

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}

// 管理员全局搜索的排序字段白名单，防止把请求参数直接拼进 ORDER BY
var sortTargets = map[string]string{
	"createdAt": "created_at",
	"email":     "email",
	"firstName": "first_name",
	"lastName":  "last_name",
	"role":      "role",
}

func (r *Repository) FindAllUsers(filters domain.AdminFilters, page int, limit int) ([]*domain.User, int, error) {
	pattern := "%" + filters.Search + "%"

	conditions := sq.And{
		sq.Or{
			sq.ILike{"email": pattern},
			sq.ILike{"first_name": pattern},
			sq.ILike{"last_name": pattern},
		},
	}
	if filters.Role != nil {
		conditions = append(conditions, sq.Eq{"role": string(*filters.Role)})
	}
	if filters.AccountBlocked != nil {
		conditions = append(conditions, sq.Eq{"account_blocked": *filters.AccountBlocked})
	}

	orderBy, ok := sortTargets[filters.SortTarget]
	if !ok {
		orderBy = "created_at"
	}
	if filters.SortDescending {
		orderBy += " DESC"
	} else {
		orderBy += " ASC"
	}

	countQuery, countArgs, err := sq.Select("COUNT(*)").
		From("users").
		Where(conditions).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	query, args, err := sq.Select(userColumnList...).
		From("users").
		Where(conditions).
		OrderBy(orderBy).
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	total := 0
	if err := r.dbpool.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
