package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/abhijeets54/feedback-backend/internal/identity"
	"github.com/abhijeets54/feedback-backend/internal/model"
	"github.com/abhijeets54/feedback-backend/internal/policy"
	"github.com/abhijeets54/feedback-backend/internal/repository"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportTeamFeedback 经理导出可见范围内的全部反馈
	ExportTeamFeedback(ctx context.Context, caller identity.Caller) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var exportHeaders = []string{"员工", "邮箱", "撰写经理", "优点", "待改进", "备注", "情感", "情感降级", "已确认", "确认时间", "创建时间"}

var sentimentLabels = map[model.Sentiment]string{
	model.SentimentPositive: "积极",
	model.SentimentNeutral:  "中性",
	model.SentimentNegative: "消极",
}

// ────── ExportTeamFeedback ──────
//
// 单 Sheet，每行一条反馈，按创建时间倒序

func (s *exportService) ExportTeamFeedback(ctx context.Context, caller identity.Caller) (*bytes.Buffer, string, error) {
	if err := policy.RequireManager(caller); err != nil {
		return nil, "", err
	}

	list, _, err := s.repo.Feedback.List(ctx, repository.FeedbackFilter{VisibleToManager: caller.UserID}, 0, 0)
	if err != nil {
		s.logger.Error("查询导出反馈失败", zap.String("manager_id", caller.UserID), zap.Error(err))
		return nil, "", pkgerrors.Store(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "团队反馈"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "C", 18)
	f.SetColWidth(sheetName, "D", "F", 40)
	f.SetColWidth(sheetName, "G", "K", 14)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for i, h := range exportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(exportHeaders)-1), 1), headerStyle)

	row := 2
	for i := range list {
		fb := &list[i]
		values := []interface{}{
			userName(fb.Employee, fb.EmployeeID),
			userEmail(fb.Employee),
			userName(fb.Manager, fb.ManagerID),
			fb.Strengths,
			fb.AreasToImprove,
			fb.Notes,
			sentimentLabels[fb.Sentiment],
			yesNo(fb.SentimentDegraded),
			yesNo(fb.Acknowledged),
			"-",
			fb.CreatedAt.UTC().Format(time.DateTime),
		}
		if fb.AcknowledgedAt != nil {
			values[9] = fb.AcknowledgedAt.UTC().Format(time.DateTime)
		}
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.logger.Info("导出团队反馈", zap.String("manager_id", caller.UserID), zap.Int("rows", len(list)))
	filename := fmt.Sprintf("team_feedback_%s.xlsx", time.Now().UTC().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func userName(u *model.User, fallback string) string {
	if u == nil {
		return fallback
	}
	return u.FullName
}

func userEmail(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
