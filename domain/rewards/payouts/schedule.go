package payouts

import "github.com/smartcash/smartrewardsd/domain/rewards/model"

// Schedule windows a closed round's payout order into payout blocks.
type Schedule struct {
	FirstBlock     uint64
	BlockInterval  uint64
	PayeesPerBlock uint32
	TotalPayees    uint32
}

// NewSchedule returns the schedule of round, whose payouts start
// startDelay blocks after its end and pay totalPayees in total.
func NewSchedule(round *model.Round, startDelay uint64, totalPayees uint32) *Schedule {
	return &Schedule{
		FirstBlock:     round.EndHeight + startDelay,
		BlockInterval:  round.BlockInterval,
		PayeesPerBlock: round.PayeesPerBlock,
		TotalPayees:    totalPayees,
	}
}

// RewardBlocks returns the number of blocks paying out the round.
func (s *Schedule) RewardBlocks() uint64 {
	if s.PayeesPerBlock == 0 {
		return 0
	}
	perBlock := uint64(s.PayeesPerBlock)
	return (uint64(s.TotalPayees) + perBlock - 1) / perBlock
}

// LastBlock returns the height of the last payout block. It equals
// FirstBlock when there is nothing to pay.
func (s *Schedule) LastBlock() uint64 {
	blocks := s.RewardBlocks()
	if blocks == 0 {
		return s.FirstBlock
	}
	return s.FirstBlock + (blocks-1)*s.BlockInterval
}

// LastBlockPayees returns the number of payees in the last payout block.
func (s *Schedule) LastBlockPayees() uint32 {
	if s.TotalPayees == 0 || s.PayeesPerBlock == 0 {
		return 0
	}
	if remainder := s.TotalPayees % s.PayeesPerBlock; remainder != 0 {
		return remainder
	}
	return s.PayeesPerBlock
}

// IsPayoutBlock returns whether height pays out part of the round.
func (s *Schedule) IsPayoutBlock(height uint64) bool {
	if s.RewardBlocks() == 0 || height < s.FirstBlock || height > s.LastBlock() {
		return false
	}
	return s.BlockInterval == 0 || (height-s.FirstBlock)%s.BlockInterval == 0
}

// PaidCount returns how many payees of the order are paid once the block at
// height is applied.
func (s *Schedule) PaidCount(height uint64) uint32 {
	if s.RewardBlocks() == 0 || height < s.FirstBlock {
		return 0
	}
	if height >= s.LastBlock() {
		return s.TotalPayees
	}
	paidBlocks := uint64(1)
	if s.BlockInterval != 0 {
		paidBlocks += (height - s.FirstBlock) / s.BlockInterval
	}
	return uint32(paidBlocks) * s.PayeesPerBlock
}

// Window returns the slice of order paid by the block at height. It is empty
// for heights that are not payout blocks.
func (s *Schedule) Window(order []*model.RoundResult, height uint64) []*model.RoundResult {
	if !s.IsPayoutBlock(height) || len(order) != int(s.TotalPayees) {
		return nil
	}
	end := s.PaidCount(height)
	start := uint32(0)
	if end > s.PayeesPerBlock {
		start = (end - 1) / s.PayeesPerBlock * s.PayeesPerBlock
	}
	return order[start:end]
}
