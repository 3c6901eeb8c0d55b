package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"clausecheck-backend/analysis"
	"clausecheck-backend/extract"
	"clausecheck-backend/models"
	"clausecheck-backend/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchLimit is how many documents of a batch are analyzed at once
const DefaultBatchLimit = 4

// ErrArchiveDisabled is returned by file lookups when no database is configured
var ErrArchiveDisabled = errors.New("file archive is not configured")

// FileStore records archived uploads
type FileStore interface {
	Create(ctx context.Context, file *models.ContractFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ContractFile, error)
	ListRecent(ctx context.Context, limit int) ([]*models.ContractFile, error)
}

// AnalysisService handles contract analysis requests
type AnalysisService struct {
	analyzer   *analysis.Analyzer
	extractor  extract.Extractor
	storage    storage.Storage
	fileRepo   FileStore
	batchLimit int
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithAnalyzer sets the analysis pipeline
func AnalysisWithAnalyzer(a *analysis.Analyzer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.analyzer = a
	}
}

// AnalysisWithExtractor sets the text extractor
func AnalysisWithExtractor(e extract.Extractor) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.extractor = e
	}
}

// AnalysisWithStorage sets where uploaded originals are archived
func AnalysisWithStorage(st storage.Storage) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.storage = st
	}
}

// AnalysisWithFileRepository sets the upload metadata store
func AnalysisWithFileRepository(repo FileStore) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.fileRepo = repo
	}
}

// AnalysisWithBatchLimit bounds concurrent documents per batch
func AnalysisWithBatchLimit(n int) AnalysisServiceOption {
	return func(s *AnalysisService) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		extractor:  extract.NewDocumentExtractor(),
		batchLimit: DefaultBatchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload is one uploaded contract file
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	// Err is a failure from reading the upload. A batch reports it as the
	// file's error item without analyzing it.
	Err error
}

// AnalyzeContractRequest represents a request to analyze one contract
type AnalyzeContractRequest struct {
	File        Upload
	Regulations []string
}

// AnalyzeContractResult represents the result of analyzing one contract
type AnalyzeContractResult struct {
	Report *models.AnalysisReport
	// FileID is set when the original was archived and recorded
	FileID *uuid.UUID
}

// AnalyzeContract archives, extracts and analyzes one contract
func (s *AnalysisService) AnalyzeContract(ctx context.Context, req AnalyzeContractRequest) (*AnalyzeContractResult, error) {
	if s.analyzer == nil {
		return nil, errors.New("analyzer not set")
	}
	if _, err := s.analyzer.ResolveRegulations(req.Regulations); err != nil {
		return nil, err
	}
	if req.File.Filename == "" {
		return nil, models.NewError(models.KindInvalidRequest, "file is required")
	}
	if req.File.Err != nil {
		return nil, req.File.Err
	}
	return s.analyzeUpload(ctx, req.File, req.Regulations)
}

// AnalyzeBatchRequest represents a request to analyze several contracts
type AnalyzeBatchRequest struct {
	Files       []Upload
	Regulations []string
}

// AnalyzeBatchResult holds one item per uploaded file, in upload order
type AnalyzeBatchResult struct {
	Items []models.BatchItem
}

// AnalyzeBatch analyzes every file as an independent pipeline. Only request
// validation fails the batch; document failures become error items.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, req AnalyzeBatchRequest) (*AnalyzeBatchResult, error) {
	if s.analyzer == nil {
		return nil, errors.New("analyzer not set")
	}
	if len(req.Files) == 0 {
		return nil, models.NewError(models.KindInvalidRequest, "at least one file is required")
	}
	if _, err := s.analyzer.ResolveRegulations(req.Regulations); err != nil {
		return nil, err
	}

	items := make([]models.BatchItem, len(req.Files))
	var g errgroup.Group
	g.SetLimit(s.batchLimit)
	for i, file := range req.Files {
		items[i].FileName = file.Filename
		if file.Err != nil {
			log.Printf("Warning: batch document %q was not readable: %v", file.Filename, file.Err)
			items[i].Error = models.Detail(file.Err)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			result, err := s.analyzeUpload(ctx, file, req.Regulations)
			if err != nil {
				log.Printf("Warning: batch document %q failed: %v", file.Filename, err)
				items[i].Error = models.Detail(err)
				return nil
			}
			items[i].Report = result.Report
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &AnalyzeBatchResult{Items: items}, nil
}

func (s *AnalysisService) analyzeUpload(ctx context.Context, file Upload, regulations []string) (*AnalyzeContractResult, error) {
	if s.extractor == nil {
		return nil, errors.New("extractor not set")
	}

	text, err := s.extractor.Extract(ctx, file.Filename, file.Data)
	if err != nil {
		return nil, err
	}

	docID := uuid.New()
	result := &AnalyzeContractResult{}
	if s.archive(ctx, docID, file) {
		result.FileID = &docID
	}

	report, err := s.analyzer.Analyze(ctx, analysis.Input{
		DocumentID:  docID,
		FileName:    file.Filename,
		Text:        text,
		Regulations: regulations,
	})
	if err != nil {
		return nil, err
	}
	result.Report = report
	return result, nil
}

// archive stores and records the original. Failures are logged and do not
// block the analysis.
func (s *AnalysisService) archive(ctx context.Context, id uuid.UUID, file Upload) bool {
	if s.storage == nil || s.fileRepo == nil {
		return false
	}

	mimeType := extract.DetectFormat(file.Filename, file.Data)
	path, err := s.storage.Upload(ctx, id, file.Filename, mimeType, bytes.NewReader(file.Data))
	if err != nil {
		log.Printf("Warning: failed to archive %q: %v", file.Filename, err)
		return false
	}

	record := &models.ContractFile{
		ID:          id,
		Filename:    file.Filename,
		MimeType:    mimeType,
		Size:        int64(len(file.Data)),
		StoragePath: path,
	}
	if err := s.fileRepo.Create(ctx, record); err != nil {
		log.Printf("Warning: failed to record upload %q: %v", file.Filename, err)
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			log.Printf("Warning: failed to clean up archived file %s: %v", path, delErr)
		}
		return false
	}
	return true
}

// ListRegulations returns the regulation catalog
func (s *AnalysisService) ListRegulations() []models.Regulation {
	if s.analyzer == nil {
		return nil
	}
	return s.analyzer.Catalog().Regulations()
}

// GetFile opens an archived original. The caller closes the reader.
func (s *AnalysisService) GetFile(ctx context.Context, id uuid.UUID) (*models.ContractFile, io.ReadCloser, error) {
	if s.storage == nil || s.fileRepo == nil {
		return nil, nil, ErrArchiveDisabled
	}
	record, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.storage.Download(ctx, record.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archived file: %w", err)
	}
	return record, reader, nil
}

// ListFiles returns the most recent archived uploads
func (s *AnalysisService) ListFiles(ctx context.Context, limit int) ([]*models.ContractFile, error) {
	if s.fileRepo == nil {
		return nil, ErrArchiveDisabled
	}
	return s.fileRepo.ListRecent(ctx, limit)
}
