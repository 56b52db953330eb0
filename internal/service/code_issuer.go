package service

import (
	"context"
	"errors"
	"reading_eval_backend/internal/util"
	"time"
)

const maxCodeGenerationAttempts = 10

var errCodeSpaceExhausted = errors.New("unable to generate unique access code")

// CodeIssuer 生成访问码，直到没有可用访问码与之摘要相同
type CodeIssuer struct {
	Codes    AccessCodeStore
	Secret   string
	Generate func(length int) (string, error)
}

func NewCodeIssuer(codes AccessCodeStore, secret string) *CodeIssuer {
	return &CodeIssuer{
		Codes:    codes,
		Secret:   secret,
		Generate: util.GenerateAccessCode,
	}
}

// Issue 返回明文与摘要。taken 记录同一批次中已分配的摘要，批量发布时这些码尚未落库
func (i *CodeIssuer) Issue(ctx context.Context, length int, now time.Time, taken map[string]bool) (string, string, error) {
	for n := 0; n < maxCodeGenerationAttempts; n++ {
		code, err := i.Generate(length)
		if err != nil {
			return "", "", err
		}
		code = util.NormalizeAccessCode(code)
		digest := util.DigestAccessCode(code, i.Secret)
		if taken[digest] {
			continue
		}

		inUse, err := i.Codes.DigestInUse(ctx, digest, now)
		if err != nil {
			return "", "", err
		}
		if inUse {
			continue
		}

		if taken != nil {
			taken[digest] = true
		}
		return code, digest, nil
	}
	return "", "", errCodeSpaceExhausted
}
