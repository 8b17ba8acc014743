package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
)

// ── 搜索模块业务错误 ──

var (
	ErrSearchQueryTooShort = errors.New("搜索关键词至少 2 个字符")
	ErrSearchInvalidType   = errors.New("无效的搜索类型")
)

// 可搜索的实体类型
const (
	SearchUsers       = "users"
	SearchProjects    = "projects"
	SearchColleges    = "colleges"
	SearchDiscussions = "discussions"
	SearchSubmissions = "submissions"
)

const minSearchRunes = 2

// SearchService 全局搜索业务接口
type SearchService interface {
	Search(ctx context.Context, caller authz.Principal, req *dto.SearchRequest) (*dto.SearchResponse, error)
}

type searchService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSearchService 创建 SearchService 实例
func NewSearchService(repo *repository.Repository, logger *zap.Logger) SearchService {
	return &searchService{repo: repo, logger: logger}
}

// Search 按类型检索，所有查询都经过租户过滤
// 1. 校验关键词长度与类型
// 2. type 为空时检索全部类型
// 3. 学院搜索仅对超级管理员开放，其余角色返回空列表
func (s *searchService) Search(ctx context.Context, caller authz.Principal, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	q := strings.TrimSpace(req.Q)
	if utf8.RuneCountInString(q) < minSearchRunes {
		return nil, ErrSearchQueryTooShort
	}

	types, err := searchTypes(req.Type)
	if err != nil {
		return nil, err
	}

	scope := scopeOf(caller)
	resp := &dto.SearchResponse{}
	for _, t := range types {
		switch t {
		case SearchUsers:
			users, err := s.repo.Search.Users(ctx, q, scope)
			if err != nil {
				return nil, s.fail(t, err)
			}
			resp.Users = toUserResponses(users)
		case SearchProjects:
			projects, err := s.repo.Search.Projects(ctx, q, scope)
			if err != nil {
				return nil, s.fail(t, err)
			}
			resp.Projects = projects
		case SearchColleges:
			if caller.Role != model.RoleSuperAdmin {
				resp.Colleges = []dto.CollegeResponse{}
				continue
			}
			colleges, err := s.repo.Search.Colleges(ctx, q)
			if err != nil {
				return nil, s.fail(t, err)
			}
			resp.Colleges = toCollegeResponses(colleges)
		case SearchDiscussions:
			discussions, err := s.repo.Search.Discussions(ctx, q, scope)
			if err != nil {
				return nil, s.fail(t, err)
			}
			resp.Discussions = discussions
		case SearchSubmissions:
			submissions, err := s.repo.Search.Submissions(ctx, q, scope)
			if err != nil {
				return nil, s.fail(t, err)
			}
			resp.Submissions = submissions
		}
	}
	return resp, nil
}

func (s *searchService) fail(searchType string, err error) error {
	s.logger.Error("搜索失败", zap.String("type", searchType), zap.Error(err))
	return err
}

func searchTypes(t string) ([]string, error) {
	switch t {
	case "", "all":
		return []string{SearchUsers, SearchProjects, SearchColleges, SearchDiscussions, SearchSubmissions}, nil
	case SearchUsers, SearchProjects, SearchColleges, SearchDiscussions, SearchSubmissions:
		return []string{t}, nil
	default:
		return nil, ErrSearchInvalidType
	}
}
