package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorText() {
	cause := errors.New("connection refused")

	s.Equal("Article introuvable.", New(CodeNotFound, "Article introuvable.").Error())
	s.Equal("not_found", New(CodeNotFound, "").Error())
	s.Equal("fetch blog: connection refused", Wrap(cause, CodeUpstream, "fetch blog").Error())
	s.Equal("upstream_error: connection refused", (&Error{Code: CodeUpstream, Err: cause}).Error())
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	err := fmt.Errorf("listing: %w", New(CodeRateLimited, "slow down"))

	s.True(errors.Is(err, CodeRateLimited))
	s.True(errors.Is(err, &Error{Code: CodeRateLimited}))
	s.False(errors.Is(err, CodeNotFound))
	s.False(errors.Is(errors.New("rate_limited"), CodeRateLimited))
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps an existing code", func() {
		inner := New(CodeValidation, "Le champ email est requis.")
		err := Wrap(inner, CodeInternal, "submit lead")

		s.True(HasCode(err, CodeValidation))
		s.ErrorIs(err, inner)
	})

	s.Run("applies the code to plain errors", func() {
		cause := errors.New("timeout")
		err := Wrap(cause, CodeUpstream, "upload file")

		s.True(HasCode(err, CodeUpstream))
		s.ErrorIs(err, cause)
	})
}

func (s *DomainErrorsSuite) TestHasCodeAndCodeOf() {
	wrapped := fmt.Errorf("handler: %w", New(CodePayloadTooLarge, ""))

	s.True(HasCode(wrapped, CodePayloadTooLarge))
	s.Equal(CodePayloadTooLarge, CodeOf(wrapped))

	plain := errors.New("boom")
	s.False(HasCode(plain, CodeInternal))
	s.Equal(CodeInternal, CodeOf(plain))
	s.False(HasCode(nil, CodeInternal))
}
