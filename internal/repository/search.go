package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/megak-dev/headhunter/backend/internal/domain"
)

const defaultMaxSalary = 9999999

// SearchStudents 执行 HR 搜索的存储层部分：只命中学员记录，
// 分页在这里生效，预约状态的划分由调用方在内存中完成
func (r *Repository) SearchStudents(filters domain.StudentFilters, page int, limit int) ([]*domain.User, error) {
	pattern := "%" + filters.Search + "%"

	minSalary := filters.MinSalary
	maxSalary := filters.MaxSalary
	if maxSalary == 0 {
		maxSalary = defaultMaxSalary
	}

	conditions := sq.And{
		sq.Eq{"role": string(domain.RoleStudent)},
		sq.Or{
			sq.ILike{"first_name": pattern},
			sq.ILike{"last_name": pattern},
			sq.ILike{"email": pattern},
		},
		sq.GtOrEq{"expected_salary": minSalary},
		sq.LtOrEq{"expected_salary": maxSalary},
		sq.GtOrEq{"months_of_commercial_exp": filters.MonthsOfCommercialExp},
		sq.Eq{"can_take_apprenticeship": filters.CanTakeApprenticeship},
	}

	if len(filters.CourseCompletion) > 0 {
		conditions = append(conditions, sq.Eq{"course_completion": filters.CourseCompletion})
	}
	if len(filters.CourseEngagement) > 0 {
		conditions = append(conditions, sq.Eq{"course_engagement": filters.CourseEngagement})
	}
	if len(filters.ProjectDegree) > 0 {
		conditions = append(conditions, sq.Eq{"project_degree": filters.ProjectDegree})
	}
	if len(filters.TeamProjectDegree) > 0 {
		conditions = append(conditions, sq.Eq{"team_project_degree": filters.TeamProjectDegree})
	}

	// 对工作形式和合同类型没有偏好的学员应该始终出现在结果中，
	// 所以筛选集合里永远追加对应的“无所谓”值
	if len(filters.ExpectedTypeWork) > 0 {
		typeWorks := append([]domain.TypeWork{domain.TypeWorkIrrelevant}, filters.ExpectedTypeWork...)
		conditions = append(conditions, sq.Eq{"expected_type_work": typeWorks})
	}
	if len(filters.ExpectedContractType) > 0 {
		contractTypes := append([]domain.ContractType{domain.ContractNoPreference}, filters.ExpectedContractType...)
		conditions = append(conditions, sq.Eq{"expected_contract_type": contractTypes})
	}

	query, args, err := sq.Select(userColumnList...).
		From("users").
		Where(conditions).
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]*domain.User, 0)
	for rows.Next() {
		student, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return students, nil
}
