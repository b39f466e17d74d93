package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/stallpass/internal/logging"
	"github.com/dmitrijs2005/stallpass/internal/server/allowlist"
	"github.com/dmitrijs2005/stallpass/internal/server/config"
	"github.com/dmitrijs2005/stallpass/internal/server/metrics"
	"github.com/dmitrijs2005/stallpass/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// clock is a settable time source shared by the services under test.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	rm     *repomanager.InMemoryRepositoryManager
	users  *UserService
	visits *VisitService
	admin  *AdminService
	clock  *clock
	cfg    *config.Config
}

func newFixture(t *testing.T, allowed ...string) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.PasswordHashCost = bcrypt.MinCost
	cfg.AdminKey = "adm"

	rm := repomanager.NewInMemoryRepositoryManager()
	mt := metrics.New()
	c := &clock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}

	us := NewUserService(rm, allowlist.New(allowed...), cfg, mt)
	us.now = c.Now
	vs := NewVisitService(rm, cfg, logging.Nop{}, mt)
	vs.now = c.Now
	as := NewAdminService(rm, vs, nil, cfg, logging.Nop{}, mt)
	as.now = c.Now

	return &fixture{rm: rm, users: us, visits: vs, admin: as, clock: c, cfg: cfg}
}

func (f *fixture) signup(t *testing.T, name, email string) {
	t.Helper()
	if _, err := f.users.Signup(context.Background(), name, email, "p"); err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
}

// sequentialTokens makes generated visit tokens predictable.
func sequentialTokens() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("tok-%d", n), nil
	}
}

type fakeObjects struct {
	puts map[string][]byte
	err  error
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}
