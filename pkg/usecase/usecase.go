package usecase

import (
	"github.com/makola-community/makola/pkg/domain/interfaces"
	"github.com/makola-community/makola/pkg/domain/model"
	"github.com/makola-community/makola/pkg/domain/model/config"
)

type UseCases struct {
	repo         interfaces.Repository
	appConfig    *config.MunicipalityConfig
	notifier     interfaces.Notifier
	photoStorage interfaces.PhotoStorage
	limiter      interfaces.RateLimiter
	lifecycle    []model.IssueLifecycleOption
	commentTree  []model.CommentTreeOption

	Issue   *IssueUseCase
	Comment *CommentUseCase
	Auth    AuthUseCaseInterface
}

type Option func(*UseCases)

// WithAppConfig restricts categories and departments to the configured ones
func WithAppConfig(cfg *config.MunicipalityConfig) Option {
	return func(uc *UseCases) {
		uc.appConfig = cfg
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func WithPhotoStorage(storage interfaces.PhotoStorage) Option {
	return func(uc *UseCases) {
		uc.photoStorage = storage
	}
}

func WithRateLimiter(limiter interfaces.RateLimiter) Option {
	return func(uc *UseCases) {
		uc.limiter = limiter
	}
}

// WithIssueLifecycleOptions passes options to the issue lifecycle service
func WithIssueLifecycleOptions(opts ...model.IssueLifecycleOption) Option {
	return func(uc *UseCases) {
		uc.lifecycle = append(uc.lifecycle, opts...)
	}
}

// WithCommentTreeOptions passes options to the comment tree service
func WithCommentTreeOptions(opts ...model.CommentTreeOption) Option {
	return func(uc *UseCases) {
		uc.commentTree = append(uc.commentTree, opts...)
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Issue = &IssueUseCase{
		repo:      repo,
		lifecycle: model.NewIssueLifecycleService(uc.lifecycle...),
		tree:      model.NewCommentTreeService(uc.commentTree...),
		appConfig: uc.appConfig,
		notifier:  uc.notifier,
		storage:   uc.photoStorage,
		limiter:   uc.limiter,
	}
	uc.Comment = &CommentUseCase{
		repo:    repo,
		tree:    model.NewCommentTreeService(uc.commentTree...),
		limiter: uc.limiter,
	}

	return uc
}
