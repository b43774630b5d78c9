package fee

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// scheduleFile is the on-disk TOML layout:
//
//	chunk_size = 1000
//	chunk_fee = 20
//	overflow_fee = 0
//
//	[[tier]]
//	limit = 45
//	fee = 5
type scheduleFile struct {
	ChunkSize   *decimal.Decimal `toml:"chunk_size"`
	ChunkFee    *decimal.Decimal `toml:"chunk_fee"`
	OverflowFee *decimal.Decimal `toml:"overflow_fee"`
	Tiers       []Tier           `toml:"tier"`
}

// LoadSchedule reads a schedule from a TOML file. An empty path returns the
// default schedule. Missing chunk settings fall back to the top tier.
func LoadSchedule(path string) (Schedule, error) {
	if path == "" {
		return DefaultSchedule(), nil
	}

	var f scheduleFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to read fee schedule %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Schedule{}, fmt.Errorf("%w: unknown keys %v in %s", ErrInvalidSchedule, undecoded, path)
	}

	return f.schedule()
}

// DecodeSchedule parses a schedule from TOML text.
func DecodeSchedule(data string) (Schedule, error) {
	var f scheduleFile
	if _, err := toml.Decode(data, &f); err != nil {
		return Schedule{}, fmt.Errorf("failed to parse fee schedule: %w", err)
	}
	return f.schedule()
}

func (f scheduleFile) schedule() (Schedule, error) {
	if len(f.Tiers) == 0 {
		return Schedule{}, fmt.Errorf("%w: no tiers", ErrInvalidSchedule)
	}

	top := f.Tiers[len(f.Tiers)-1]
	s := Schedule{
		Tiers:       f.Tiers,
		ChunkSize:   top.Limit,
		ChunkFee:    top.Fee,
		OverflowFee: decimal.Zero,
	}
	if f.ChunkSize != nil {
		s.ChunkSize = *f.ChunkSize
	}
	if f.ChunkFee != nil {
		s.ChunkFee = *f.ChunkFee
	}
	if f.OverflowFee != nil {
		s.OverflowFee = *f.OverflowFee
	}

	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}
