package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
)

// ── 批量导入导出业务错误 ──

var (
	ErrImportEmpty        = errors.New("CSV 文件为空或缺少表头")
	ErrImportMalformed    = errors.New("CSV 文件格式错误")
	ErrImportTooManyRows  = errors.New("CSV 行数超过上限")
	ErrExportNoData       = errors.New("该项目暂无数据")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 导出格式
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

const (
	// MaxImportRows 单次导入的数据行上限（不含表头）
	MaxImportRows = 5000

	submissionTypeColumn = "submission_type"
)

var exportHeader = []string{
	"id", "student_id", "project_id", "status", "submission_type", "quality_score",
	"submitted_at", "reviewed_at", "created_at", "data_content",
}

// ExportFile 导出结果
type ExportFile struct {
	Content     *bytes.Buffer
	Filename    string
	ContentType string
}

// BatchService 批量导入导出业务接口
type BatchService interface {
	// ImportData 导入 CSV：表头作为 data_content 的键，逐行入库，失败行单独记录
	ImportData(ctx context.Context, caller authz.Principal, projectID string, r io.Reader) (*dto.ImportDataResponse, error)
	// ExportData 导出项目下的数据提交（csv 或 xlsx）
	ExportData(ctx context.Context, caller authz.Principal, projectID, format string) (*ExportFile, error)
}

type batchService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewBatchService 创建 BatchService 实例
func NewBatchService(repo *repository.Repository, logger *zap.Logger) BatchService {
	return &batchService{repo: repo, logger: logger, now: time.Now}
}

func (s *batchService) checkProject(ctx context.Context, caller authz.Principal, projectID string) (*model.Project, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}
	ok, _, err := visibleTo(ctx, s.repo.User, caller, project.CreatedBy)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// ────────────────────── ImportData ──────────────────────

// ImportData 批量导入
// 1. 校验项目可见性
// 2. 解析表头与数据行，列数不符的行记为失败
// 3. 所有可解析的行在同一事务内逐行写入（每行一个保存点），状态为 approved
func (s *batchService) ImportData(ctx context.Context, caller authz.Principal, projectID string, r io.Reader) (*dto.ImportDataResponse, error) {
	if _, err := s.checkProject(ctx, caller, projectID); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrImportEmpty
		}
		return nil, fmt.Errorf("%w: %v", ErrImportMalformed, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	now := s.now()
	resp := &dto.ImportDataResponse{}
	var subs []*model.DataSubmission
	var rowNumbers []int

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if row > MaxImportRows {
			return nil, fmt.Errorf("%w（最多 %d 行）", ErrImportTooManyRows, MaxImportRows)
		}
		resp.Total++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && errors.Is(perr.Err, csv.ErrFieldCount) {
				resp.Errors = append(resp.Errors, dto.ImportRowError{Row: row, Reason: "列数与表头不一致"})
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrImportMalformed, err)
		}

		sub, err := s.rowToSubmission(caller, projectID, header, record, now)
		if err != nil {
			resp.Errors = append(resp.Errors, dto.ImportRowError{Row: row, Reason: err.Error()})
			continue
		}
		subs = append(subs, sub)
		rowNumbers = append(rowNumbers, row)
	}
	if resp.Total == 0 {
		return nil, ErrImportEmpty
	}

	if len(subs) > 0 {
		for _, rowErr := range s.repo.Submission.CreateBatch(ctx, subs) {
			resp.Errors = append(resp.Errors, dto.ImportRowError{
				Row:    rowNumbers[rowErr.Index],
				Reason: rowErr.Err.Error(),
			})
		}
	}

	resp.Failed = len(resp.Errors)
	resp.Imported = resp.Total - resp.Failed
	s.logger.Info("批量导入完成",
		zap.String("project_id", projectID),
		zap.String("by", caller.ID),
		zap.Int("imported", resp.Imported),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

func (s *batchService) rowToSubmission(caller authz.Principal, projectID string, header, record []string, now time.Time) (*model.DataSubmission, error) {
	content := make(map[string]string, len(header))
	submissionType := ""
	for i, key := range header {
		if key == "" {
			continue
		}
		if key == submissionTypeColumn {
			submissionType = strings.TrimSpace(record[i])
			continue
		}
		content[key] = record[i]
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}

	pid := projectID
	reviewer := caller.ID
	return &model.DataSubmission{
		StudentID:      caller.ID,
		ProjectID:      &pid,
		DataContent:    datatypes.JSON(raw),
		ImageURLs:      pq.StringArray{},
		VideoURLs:      pq.StringArray{},
		FileURLs:       pq.StringArray{},
		AudioURLs:      pq.StringArray{},
		Status:         model.SubmissionApproved,
		SubmissionType: submissionType,
		SubmittedAt:    &now,
		ReviewedBy:     &reviewer,
		ReviewedAt:     &now,
	}, nil
}

// ────────────────────── ExportData ──────────────────────

func (s *batchService) ExportData(ctx context.Context, caller authz.Principal, projectID, format string) (*ExportFile, error) {
	project, err := s.checkProject(ctx, caller, projectID)
	if err != nil {
		return nil, err
	}

	subs, err := s.repo.Submission.ListByProject(ctx, projectID, scopeOf(caller))
	if err != nil {
		s.logger.Error("查询项目数据失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrExportNoData
	}

	rows := make([][]string, 0, len(subs))
	for i := range subs {
		rows = append(rows, exportRow(&subs[i]))
	}

	base := fmt.Sprintf("data_%s_%s", project.ID, s.now().Format("20060102"))
	if format == ExportXLSX {
		buf, err := s.writeXLSX(project.Name, rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Content:     buf,
			Filename:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}, nil
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(exportHeader)
	_ = w.WriteAll(rows)
	if err := w.Error(); err != nil {
		s.logger.Error("写入 CSV 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &ExportFile{Content: buf, Filename: base + ".csv", ContentType: "text/csv"}, nil
}

func (s *batchService) writeXLSX(title string, rows [][]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "数据提交"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#70AD47"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", fmt.Sprintf("%s1", colName(len(exportHeader)-1)))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range exportHeader {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(exportHeader)-1), 2), headerStyle)
	f.SetColWidth(sheetName, "A", colName(len(exportHeader)-2), 20)
	f.SetColWidth(sheetName, colName(len(exportHeader)-1), colName(len(exportHeader)-1), 60)

	// 数据行
	for r, row := range rows {
		for c, v := range row {
			f.SetCellValue(sheetName, cell(colName(c), r+3), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

func exportRow(sub *model.DataSubmission) []string {
	projectID := ""
	if sub.ProjectID != nil {
		projectID = *sub.ProjectID
	}
	score := ""
	if sub.QualityScore != nil {
		score = strconv.FormatFloat(*sub.QualityScore, 'f', 2, 64)
	}
	return []string{
		sub.ID,
		sub.StudentID,
		projectID,
		sub.Status,
		sub.SubmissionType,
		score,
		formatTime(sub.SubmittedAt),
		formatTime(sub.ReviewedAt),
		sub.CreatedAt.Format(time.RFC3339),
		string(sub.DataContent),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
