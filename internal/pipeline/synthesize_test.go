package pipeline

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luc0-0/Samarth/internal/model"
)

func executedFor(t *testing.T, in *model.Intent, rows model.ResultSet) Executed {
	t.Helper()
	plans := planFor(t, in)
	return Executed{Planned: plans[0], Rows: rows, QueryText: "SELECT ..."}
}

func TestSynthesizeComparison(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeComparison,
		Subjects:  []string{"maharashtra", "punjab"},
		Crops:     []string{"rice"},
		Metrics:   []string{"production"},
		DataMode:  model.ModeHistorical,
		Agg:       model.AggAvg,
	}
	res := executedFor(t, in, model.ResultSet{
		model.Row{"state": "maharashtra", "avg_production": 1234.5},
		model.Row{"state": "punjab", "avg_production": 2345.678},
	})

	text, structured, err := NewSynthesizer().Synthesize(in, []Executed{res}, false)
	require.NoError(t, err)

	assert.Contains(t, text, "Maharashtra averaged 1234.50 tonnes")
	assert.Contains(t, text, "Punjab averaged 2345.68 tonnes")
	assert.Contains(t, text, "rice production")
	assert.Contains(t, text, "Punjab recorded the higher figure")
	assert.Len(t, structured, 2)
}

func TestSynthesizeComparisonTwoMetrics(t *testing.T) {
	in := &model.Intent{
		Archetype:   model.ArchetypeComparison,
		Subjects:    []string{"punjab"},
		Metrics:     []string{"rainfall", "production"},
		DataMode:    model.ModeHistorical,
		CrossDomain: true,
		Agg:         model.AggAvg,
	}
	plans := planFor(t, in)
	require.Len(t, plans, 2)
	rain := Executed{Planned: plans[0], Rows: model.ResultSet{
		model.Row{"state": "punjab", "avg_rainfall": 600.0},
	}, QueryText: "SELECT ..."}
	prod := Executed{Planned: plans[1], Rows: model.ResultSet{
		model.Row{"state": "punjab", "avg_production": 1200.0},
	}, QueryText: "SELECT ..."}

	text, structured, err := NewSynthesizer().Synthesize(in, []Executed{rain, prod}, false)
	require.NoError(t, err)

	assert.Contains(t, text, "Punjab averaged 600.00 mm")
	assert.Contains(t, text, "Punjab averaged 1200.00 tonnes")
	assert.Len(t, structured, 2)
}

func TestSynthesizeComparisonSkipsNonNumericLeader(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeComparison,
		Subjects:  []string{"punjab", "maharashtra", "bihar"},
		Metrics:   []string{"production"},
		DataMode:  model.ModeHistorical,
		Agg:       model.AggAvg,
	}
	res := executedFor(t, in, model.ResultSet{
		model.Row{"state": "punjab", "avg_production": nil},
		model.Row{"state": "maharashtra", "avg_production": 800.0},
		model.Row{"state": "bihar", "avg_production": 500.0},
	})

	text, _, err := NewSynthesizer().Synthesize(in, []Executed{res}, false)
	require.NoError(t, err)

	assert.NotContains(t, text, "Punjab averaged")
	assert.Contains(t, text, "Maharashtra recorded the higher figure")
}

func TestSynthesizeTrend(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeTrend,
		Crops:     []string{"cotton"},
		Metrics:   []string{"production"},
		Time:      &model.YearRange{Start: 2010, End: 2014},
		DataMode:  model.ModeHistorical,
		Agg:       model.AggAvg,
	}
	res := executedFor(t, in, model.ResultSet{
		model.Row{"year": int64(2010), "avg_production": 100.0},
		model.Row{"year": int64(2012), "avg_production": 130.0},
		model.Row{"year": int64(2014), "avg_production": 150.0},
	})

	text, _, err := NewSynthesizer().Synthesize(in, []Executed{res}, false)
	require.NoError(t, err)

	assert.Contains(t, text, "Between 2010 and 2014")
	assert.Contains(t, text, "rose from 100.00 to 150.00")
	assert.Contains(t, text, "50.00% change")
}

func TestSynthesizeTrendPeakAndTrough(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeTrend,
		Metrics:   []string{"production"},
		Time:      &model.YearRange{Start: 2010, End: 2014},
		DataMode:  model.ModeHistorical,
		Agg:       model.AggAvg,
	}
	res := executedFor(t, in, model.ResultSet{
		model.Row{"year": int64(2010), "avg_production": 100.0},
		model.Row{"year": int64(2012), "avg_production": 500.0},
		model.Row{"year": int64(2014), "avg_production": 300.0},
	})

	text, _, err := NewSynthesizer().Synthesize(in, []Executed{res}, false)
	require.NoError(t, err)

	assert.Contains(t, text, "The peak was 500.00 tonnes in 2012")
	assert.Contains(t, text, "the low was 100.00 tonnes in 2010")
}

func TestSynthesizeTrendDecline(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeTrend,
		Metrics:   []string{"rainfall"},
		Time:      &model.YearRange{Start: 2010, End: 2012},
		DataMode:  model.ModeHistorical,
		Agg:       model.AggAvg,
	}
	res := executedFor(t, in, model.ResultSet{
		model.Row{"year": int64(2010), "avg_rainfall": 800.0},
		model.Row{"year": int64(2012), "avg_rainfall": 600.0},
	})

	text, _, err := NewSynthesizer().Synthesize(in, []Executed{res}, false)
	require.NoError(t, err)
	assert.Contains(t, text, "fell from 800.00 to 600.00")
}

func TestSynthesizeRanking(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeRanking,
		Metrics:   []string{"production"},
		DataMode:  model.ModeHistorical,
		Agg:       model.AggAvg,
		TopN:      3,
	}
	res := executedFor(t, in, model.ResultSet{
		model.Row{"state": "punjab", "avg_production": 300.0},
		model.Row{"state": "haryana", "avg_production": 200.0},
		model.Row{"state": "bihar", "avg_production": 100.0},
	})

	text, _, err := NewSynthesizer().Synthesize(in, []Executed{res}, false)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "Top 3 states"), text)
	assert.Contains(t, text, "1. Punjab (300.00 tonnes)")
	assert.Contains(t, text, "3. Bihar (100.00 tonnes)")
}

func TestSynthesizeRankingCollapsesLongTail(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeRanking,
		Metrics:   []string{"production"},
		DataMode:  model.ModeHistorical,
		Agg:       model.AggAvg,
		TopN:      12,
	}
	rows := make(model.ResultSet, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, model.Row{"state": "state" + strconv.Itoa(i), "avg_production": float64(1200 - i*100)})
	}
	res := executedFor(t, in, rows)

	text, _, err := NewSynthesizer().Synthesize(in, []Executed{res}, false)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "Top 12 states"), text)
	assert.Contains(t, text, "10. State9 (300.00 tonnes)")
	assert.NotContains(t, text, "11. ")
	assert.Contains(t, text, "and 2 more")
}

func TestSynthesizeAggregation(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeAggregation,
		Subjects:  []string{"kerala"},
		Metrics:   []string{"rainfall"},
		DataMode:  model.ModeHistorical,
		Agg:       model.AggAvg,
	}
	res := executedFor(t, in, model.ResultSet{
		model.Row{"avg_rainfall": 2923.456},
	})

	text, _, err := NewSynthesizer().Synthesize(in, []Executed{res}, false)
	require.NoError(t, err)
	assert.Contains(t, text, "average rainfall in Kerala is 2923.46 mm")
}

func TestSynthesizeEmptyResultIsExplicit(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeComparison,
		Subjects:  []string{"goa", "sikkim"},
		Metrics:   []string{"production"},
		DataMode:  model.ModeHistorical,
		Agg:       model.AggAvg,
	}
	res := executedFor(t, in, model.ResultSet{})

	text, structured, err := NewSynthesizer().Synthesize(in, []Executed{res}, false)
	require.NoError(t, err)
	assert.Equal(t, noDataMessage, text)
	assert.Empty(t, structured)
	assert.NotContains(t, text, "0.00", "no fabricated zero values")
}

func TestSynthesizeLiveRows(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeCurrent,
		Subjects:  []string{"maharashtra"},
		Metrics:   []string{"price"},
		DataMode:  model.ModeLive,
		Agg:       model.AggAvg,
	}
	res := executedFor(t, in, model.ResultSet{
		model.Row{"commodity": "Onion", "market": "Pune", "modal_price": "1200"},
		model.Row{"commodity": "Potato", "market": "Nagpur", "modal_price": "900.5"},
	})

	text, _, err := NewSynthesizer().Synthesize(in, []Executed{res}, false)
	require.NoError(t, err)

	assert.Contains(t, text, "Latest market prices in Maharashtra")
	assert.Contains(t, text, "Onion at Pune: 1200.00 per quintal")
	assert.Contains(t, text, "Potato at Nagpur: 900.50 per quintal")
}

func TestSynthesizeLiveFallbackNote(t *testing.T) {
	in := &model.Intent{
		Archetype: model.ArchetypeCurrent,
		Subjects:  []string{"maharashtra"},
		Metrics:   []string{"price"},
		DataMode:  model.ModeLive,
		Agg:       model.AggAvg,
	}
	cat := NewCatalog(nil)
	fb := NewPlanner().FallbackPlan(in, cat.HistoricalFallback())
	res := Executed{Planned: fb, Rows: model.ResultSet{
		model.Row{"state": "maharashtra", "avg_production": 512.3},
	}}

	text, _, err := NewSynthesizer().Synthesize(in, []Executed{res}, true)
	require.NoError(t, err)

	assert.Contains(t, text, "Live market data is currently unavailable")
	assert.Contains(t, text, "Maharashtra averaged 512.30 tonnes")
}

func TestSynthesizeCorrelation(t *testing.T) {
	in := &model.Intent{
		Archetype:   model.ArchetypeCorrelation,
		Metrics:     []string{"rainfall", "production"},
		CrossDomain: true,
		DataMode:    model.ModeHistorical,
		Agg:         model.AggAvg,
	}
	plans := planFor(t, in)

	a := Executed{Planned: plans[0], Rows: model.ResultSet{
		obs("punjab", 2010, "avg_rainfall", 500.0),
		obs("punjab", 2011, "avg_rainfall", 600.0),
		obs("punjab", 2012, "avg_rainfall", 700.0),
		obs("kerala", 2010, "avg_rainfall", 800.0),
	}}
	b := Executed{Planned: plans[1], Rows: model.ResultSet{
		obs("punjab", 2010, "avg_production", 50.0),
		obs("punjab", 2011, "avg_production", 60.0),
		obs("punjab", 2012, "avg_production", 70.0),
		obs("kerala", 2010, "avg_production", 80.0),
	}}

	text, structured, err := NewSynthesizer().Synthesize(in, []Executed{a, b}, false)
	require.NoError(t, err)

	assert.Contains(t, text, "strong positive correlation")
	assert.Contains(t, text, "r = 1.00")
	assert.Contains(t, text, "4 state-year pairs")
	require.Len(t, structured, 4)
	assert.Contains(t, structured[0], "rainfall")
	assert.Contains(t, structured[0], "production")
}

func TestSynthesizeCorrelationTooFewPairs(t *testing.T) {
	in := &model.Intent{
		Archetype:   model.ArchetypeCorrelation,
		Metrics:     []string{"rainfall", "production"},
		CrossDomain: true,
		DataMode:    model.ModeHistorical,
		Agg:         model.AggAvg,
	}
	plans := planFor(t, in)

	a := Executed{Planned: plans[0], Rows: model.ResultSet{
		obs("punjab", 2010, "avg_rainfall", 500.0),
		obs("punjab", 2011, "avg_rainfall", 600.0),
	}}
	b := Executed{Planned: plans[1], Rows: model.ResultSet{
		obs("punjab", 2010, "avg_production", 50.0),
		obs("punjab", 2011, "avg_production", 60.0),
	}}

	_, _, err := NewSynthesizer().Synthesize(in, []Executed{a, b}, false)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.ErrInsufficientData))
}
