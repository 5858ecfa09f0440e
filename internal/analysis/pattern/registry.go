package pattern

type matcher func(v view) (Pattern, bool)

var registry = map[Kind]matcher{
	DoubleTop:            matchDoubleTop,
	DoubleBottom:         matchDoubleBottom,
	HeadShoulders:        matchHeadShoulders,
	InverseHeadShoulders: matchInverseHeadShoulders,
	Breakout:             matchBreakout,
	Breakdown:            matchBreakdown,
	SupportBounce:        matchSupportBounce,
	ResistanceRejection:  matchResistanceRejection,
	BullishEngulfing:     matchBullishEngulfing,
	BearishEngulfing:     matchBearishEngulfing,
	Hammer:               matchHammer,
	ShootingStar:         matchShootingStar,
	MorningStar:          matchMorningStar,
	EveningStar:          matchEveningStar,
	Piercing:             matchPiercing,
	DarkCloudCover:       matchDarkCloudCover,
	BullishHarami:        matchBullishHarami,
	BearishHarami:        matchBearishHarami,
}
