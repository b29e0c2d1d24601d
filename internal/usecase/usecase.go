package usecase

import "context"

type BackfillUC interface {
	Run(ctx context.Context, req *BackfillReq) (*BackfillReport, error)
}

type SearchUC interface {
	Search(ctx context.Context, req *SearchReq) (*SearchRes, error)
}
