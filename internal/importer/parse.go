package importer

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/megak-dev/headhunter/backend/internal/utils"
)

// 批量导入文件里必须出现的列，缺列或者某个值校验失败都会让该行被拒绝
var requiredColumns = []string{
	"email",
	"courseCompletion",
	"courseEngagement",
	"projectDegree",
	"teamProjectDegree",
	"bonusProjectUrls",
}

type importedStudent struct {
	Email             string
	CourseCompletion  int32
	CourseEngagement  int32
	ProjectDegree     int32
	TeamProjectDegree int32
	BonusProjectUrls  []string
}

// 解析 0~5 的整数评分，超出范围或者不是整数都算非法
func parseScore(value string) (int32, bool) {
	score, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || !utils.NumberInRange(int64(score), 0, 5) {
		return 0, false
	}
	return int32(score), true
}

// parseStudents 读取带表头的 CSV 文本，最多处理 maxRows 行数据。
// 返回通过校验且在本批次内邮箱没有重复的行，以及读到的数据行总数。
// 只有文件级别的解析错误才会返回 error，单行的问题只会让该行被丢弃。
func parseStudents(raw string, maxRows int) ([]importedStudent, int, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.TrimLeadingSpace = true
	// 列数不齐的行按缺列处理，不让它中断整个文件
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, err
	}

	columnIndex := map[string]int{}
	for i, name := range header {
		columnIndex[strings.TrimSpace(name)] = i
	}

	students := make([]importedStudent, 0)
	seenEmails := map[string]bool{}
	total := 0

	for total < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		total++

		fields := map[string]string{}
		rowValid := true
		for _, column := range requiredColumns {
			index, ok := columnIndex[column]
			if !ok || index >= len(record) {
				rowValid = false
				break
			}
			fields[column] = record[index]
		}
		if !rowValid {
			continue
		}

		email := strings.TrimSpace(fields["email"])
		if !utils.IsEmail(email) {
			continue
		}
		// 同一批次内只认第一次出现的邮箱
		if seenEmails[email] {
			continue
		}

		student := importedStudent{Email: email}
		if student.CourseCompletion, rowValid = parseScore(fields["courseCompletion"]); !rowValid {
			continue
		}
		if student.CourseEngagement, rowValid = parseScore(fields["courseEngagement"]); !rowValid {
			continue
		}
		if student.ProjectDegree, rowValid = parseScore(fields["projectDegree"]); !rowValid {
			continue
		}
		if student.TeamProjectDegree, rowValid = parseScore(fields["teamProjectDegree"]); !rowValid {
			continue
		}
		student.BonusProjectUrls = utils.FilterVCSLinks(fields["bonusProjectUrls"])

		seenEmails[email] = true
		students = append(students, student)
	}

	return students, total, nil
}
