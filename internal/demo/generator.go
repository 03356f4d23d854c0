// Package demo generates a deterministic CRM snapshot for local runs and
// smoke tests.
package demo

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/crmpulse/internal/adapters/repository"
	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/record"
	"github.com/shopspring/decimal"
)

// Default generator configuration constants.
const (
	defaultSeed     = 42
	defaultDeals    = 60
	defaultAccounts = 12
	dropChance      = 0.2
	// pairMonths is how many leading fiscal months use the legacy pair shape.
	pairMonths = 3
)

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the random seed. The same seed and now yield the same snapshot.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.seed = seed }
}

// WithDeals sets the number of deals.
func WithDeals(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.deals = n
		}
	}
}

// WithAccounts sets the number of accounts.
func WithAccounts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.accounts = n
		}
	}
}

// Generator builds demo snapshots.
type Generator struct {
	seed     uint64
	deals    int
	accounts int
}

// NewGenerator returns a Generator with defaults.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{seed: defaultSeed, deals: defaultDeals, accounts: defaultAccounts}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var namespace = uuid.MustParse("6f1c3a52-5d0e-4c1b-9a7e-2d8f0b4c9e11")

// id derives a stable uuid from a name.
func id(kind string, n int) string {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("%s/%d", kind, n))).String()
}

var (
	kamNames  = []string{"Asha Rao", "Vikram Shah", "Meera Iyer"}
	lobs      = []string{"payments", "lending", "treasury"}
	sizes     = []string{"Enterprise", "Mid-Market", "SMB"}
	mandTypes = []model.MandateType{model.MandateExisting, model.MandateNewCrossSell, model.MandateNewAcquisition}
)

// Generate builds a snapshot for the fiscal year containing now. Performance
// is recorded for closed months only; the first months use the legacy pair
// shape and later months the scalar shape. The last account's first mandate
// carries one malformed cell in April.
func (g *Generator) Generate(now time.Time) repository.Snapshot {
	rng := rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15))
	fy := fiscal.YearOf(now)
	current := fiscal.MonthOf(now)
	months := fy.Months()

	var snap repository.Snapshot
	for i, name := range kamNames {
		snap.Kams = append(snap.Kams, model.Kam{ID: id("kam", i), DisplayName: name})
	}

	for i := 0; i < g.accounts; i++ {
		acc := model.Account{ID: id("account", i), Name: fmt.Sprintf("Account %02d", i+1), CompanySize: sizes[i%len(sizes)]}
		snap.Accounts = append(snap.Accounts, acc)
		kam := snap.Kams[i%len(snap.Kams)]

		// Every account holds one mandate per type it was assigned; the
		// first few accounts are large enough to land in Tier1.
		scale := int64(50_000 + rng.IntN(200_000))
		if i < 2 {
			scale *= 10
		}
		for j := 0; j <= i%len(mandTypes); j++ {
			m := model.Mandate{
				ID:          id(fmt.Sprintf("mandate/%d", i), j),
				AccountID:   acc.ID,
				KamID:       kam.ID,
				Type:        mandTypes[j],
				LOB:         lobs[(i+j)%len(lobs)],
				Performance: make(map[fiscal.Month]record.Entry),
			}
			for k, month := range months {
				if !month.Before(current) {
					break
				}
				achieved := decimal.NewFromInt(scale + int64(rng.IntN(int(scale))))
				switch {
				case i == g.accounts-1 && j == 0 && k == 0:
					m.Performance[month] = record.Malformed()
				case k < pairMonths:
					planned := achieved.Mul(decimal.NewFromFloat(1.1)).Round(0)
					m.Performance[month] = record.Pair(planned, achieved)
				default:
					m.Performance[month] = record.Scalar(achieved)
				}
			}
			snap.Mandates = append(snap.Mandates, m)

			if m.Type == model.MandateNewAcquisition {
				continue
			}
			for _, month := range months {
				snap.Targets = append(snap.Targets, model.TargetRecord{
					ID:         id("target/"+m.ID, int(month.Month)),
					Type:       model.TargetExisting,
					Month:      month.Month,
					Year:       month.Year,
					FiscalYear: fy.Label(),
					Value:      decimal.NewFromInt(scale * 3 / 2),
					Scope:      model.ExistingScope{MandateID: m.ID},
				})
			}
		}

		for _, month := range months {
			snap.Targets = append(snap.Targets, model.TargetRecord{
				ID:         id("xsell/"+acc.ID, int(month.Month)),
				Type:       model.TargetNewCrossSell,
				Month:      month.Month,
				Year:       month.Year,
				FiscalYear: fy.Label(),
				Value:      decimal.NewFromInt(scale / 2),
				Scope:      model.CrossSellScope{KamID: kam.ID, AccountID: acc.ID},
			})
		}
	}

	g.addDeals(rng, fy, now, &snap)
	return snap
}

// addDeals adds deals and their status walks, none later than now.
func (g *Generator) addDeals(rng *rand.Rand, fy fiscal.Year, now time.Time, snap *repository.Snapshot) {
	start, _ := fy.Range()
	span := now.Sub(start)
	if span <= 0 {
		span = time.Hour
	}
	progress := model.ProgressStages()

	for i := 0; i < g.deals; i++ {
		acc := snap.Accounts[rng.IntN(len(snap.Accounts))]
		kam := snap.Kams[rng.IntN(len(snap.Kams))]
		created := start.Add(time.Duration(rng.Int64N(int64(span))))
		d := model.Deal{
			ID:                id("deal", i),
			KamID:             kam.ID,
			AccountID:         acc.ID,
			ExpectedValue:     decimal.NewFromInt(int64(10_000 + rng.IntN(990_000))),
			CreatedAt:         created,
			ExpectedCloseDate: created.AddDate(0, 1+rng.IntN(5), 0),
		}

		steps := rng.IntN(len(progress))
		at := created
		var prev model.Stage
		for s := 0; s <= steps && !at.After(now); s++ {
			next := progress[s]
			snap.Events = append(snap.Events, model.StatusEvent{
				ID:        id("event/"+d.ID, s),
				DealID:    d.ID,
				OldStatus: prev,
				NewStatus: next,
				ChangedAt: at,
			})
			prev = next
			at = at.Add(time.Duration(1+rng.IntN(72)) * time.Hour)
		}
		if prev != model.StageClosedWon && !at.After(now) && rng.Float64() < dropChance {
			snap.Events = append(snap.Events, model.StatusEvent{
				ID:        id("event/"+d.ID, steps+1),
				DealID:    d.ID,
				OldStatus: prev,
				NewStatus: model.StageDropped,
				ChangedAt: at,
			})
			prev = model.StageDropped
		}
		d.Status = prev
		snap.Deals = append(snap.Deals, d)
	}
}
