package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// a Saturday
var saturday = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func testTemplates() Templates {
	return Templates{
		{
			Name:          "weekend",
			DaysOfTheWeek: []time.Weekday{time.Saturday, time.Sunday},
			Demand:        []Band{{HourStart: 0, HourEnd: 24, Value: 0.8}},
			ImportPrice:   []Band{{HourStart: 0, HourEnd: 24, Value: 0.2}},
		},
		{
			Name: "weekday",
			Demand: []Band{
				{HourStart: 0, HourEnd: 24, Value: 0.3},
				{HourStart: 17, HourEnd: 20, Value: 1},
			},
			ImportPrice: []Band{
				{HourStart: 0, HourEnd: 6, Value: 0.1},
				{HourStart: 6, HourEnd: 24, Value: 0.3},
			},
			ExportPrice: []Band{{HourStart: 0, HourEnd: 24, Value: 0.05}},
			Charge:      []Band{{HourStart: 1, HourEnd: 5, Value: 1}},
			ShiftableDemands: []types.ShiftableDemand{{
				Name: "dishwasher",
				Profile: []types.RelativeSample{
					{Offset: 0, KW: 1.5},
					{Offset: 2 * time.Hour, KW: 0},
				},
			}},
		},
	}
}

func TestBandContains(t *testing.T) {
	b := Band{HourStart: 6, HourEnd: 9, DaysOfTheWeek: []time.Weekday{time.Monday}}
	monday := saturday.Add(2 * 24 * time.Hour)
	assert.True(t, b.Contains(monday.Add(6*time.Hour)))
	assert.True(t, b.Contains(monday.Add(8*time.Hour+59*time.Minute)))
	assert.False(t, b.Contains(monday.Add(9*time.Hour)))
	assert.False(t, b.Contains(saturday.Add(7*time.Hour)))
}

func TestFor(t *testing.T) {
	ts := testTemplates()

	tmpl, err := ts.For(saturday)
	require.NoError(t, err)
	assert.Equal(t, "weekend", tmpl.Name)

	tmpl, err = ts.For(saturday.Add(2 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "weekday", tmpl.Name)

	_, err = ts[:1].For(saturday.Add(2 * 24 * time.Hour))
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestExpand(t *testing.T) {
	ts := testTemplates()

	t.Run("Across days", func(t *testing.T) {
		// Sunday into Monday and Tuesday
		from := saturday.Add(24 * time.Hour)
		to := from.Add(3 * 24 * time.Hour)
		e, err := ts.Expand(from, to, time.UTC)
		require.NoError(t, err)

		require.Len(t, e.Baseload.Samples, 73)
		require.NoError(t, e.Baseload.Validate())
		assert.Equal(t, from, e.Baseload.Start())
		assert.Equal(t, to, e.Baseload.End())
		assert.Equal(t, types.ProfileKindDemand, e.Baseload.Kind)
		assert.Equal(t, types.ProfileKindImportPrice, e.ImportPrice.Kind)

		monday := from.Add(24 * time.Hour)
		assert.Equal(t, 0.8, e.Baseload.Samples[3].Value)
		assert.Equal(t, 0.3, e.Baseload.Samples[24+3].Value)
		assert.InDelta(t, 1.3, e.Baseload.Samples[24+18].Value, 1e-9)
		assert.Equal(t, monday.Add(18*time.Hour), e.Baseload.Samples[24+18].TS)

		assert.Equal(t, 0.2, e.ImportPrice.Samples[5].Value)
		assert.Equal(t, 0.1, e.ImportPrice.Samples[24+5].Value)
		assert.Equal(t, 0.3, e.ImportPrice.Samples[24+6].Value)
		assert.Equal(t, 0.0, e.ExportPrice.Samples[5].Value)
		assert.Equal(t, 0.05, e.ExportPrice.Samples[24+5].Value)
		assert.Equal(t, 0.0, e.Charge.Samples[24].Value)
		assert.Equal(t, 1.0, e.Charge.Samples[24+1].Value)
		assert.Equal(t, 0.0, e.Charge.Samples[24+5].Value)

		require.Len(t, e.ShiftableDemands, 2)
		first, second := e.ShiftableDemands[0], e.ShiftableDemands[1]
		assert.Equal(t, monday, *first.WithinStart)
		assert.Equal(t, monday.Add(24*time.Hour), *first.WithinEnd)
		assert.Equal(t, monday.Add(24*time.Hour), *second.WithinStart)
		assert.NotEqual(t, first.Hash(), second.Hash())
		assert.True(t, first.WithinRange(monday.Add(23*time.Hour)))
		assert.False(t, first.WithinRange(monday.Add(24*time.Hour)))
	})

	t.Run("Partial hours", func(t *testing.T) {
		from := saturday.Add(2*24*time.Hour + 30*time.Minute)
		to := from.Add(2*time.Hour + 10*time.Minute)
		e, err := ts.Expand(from, to, nil)
		require.NoError(t, err)
		assert.Equal(t, from.Truncate(time.Hour), e.ImportPrice.Start())
		assert.Equal(t, to, e.ImportPrice.End())
		require.NoError(t, e.ImportPrice.Validate())
		require.Len(t, e.ImportPrice.Samples, 4)
	})

	t.Run("Location", func(t *testing.T) {
		// 22:00 UTC Sunday is already Monday 06:00 here
		loc := time.FixedZone("UTC+8", 8*60*60)
		from := saturday.Add(24*time.Hour + 22*time.Hour)
		e, err := ts.Expand(from, from.Add(time.Hour), loc)
		require.NoError(t, err)
		assert.Equal(t, 0.3, e.ImportPrice.Samples[0].Value)
		require.Len(t, e.ShiftableDemands, 1)
		assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, loc), *e.ShiftableDemands[0].WithinStart)
	})

	t.Run("Missing template", func(t *testing.T) {
		_, err := ts[1:2].Expand(saturday, saturday.Add(time.Hour), time.UTC)
		require.NoError(t, err)
		weekdays := testTemplates()[1:2]
		weekdays[0].DaysOfTheWeek = []time.Weekday{time.Monday}
		_, err = weekdays.Expand(saturday, saturday.Add(time.Hour), time.UTC)
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})

	t.Run("Closing sample uses last day", func(t *testing.T) {
		saturdays := Templates{{
			Name:          "saturday",
			DaysOfTheWeek: []time.Weekday{time.Saturday},
			Demand:        []Band{{HourStart: 0, HourEnd: 24, Value: 0.6}},
		}}
		to := saturday.Add(24 * time.Hour)
		e, err := saturdays.Expand(saturday, to, time.UTC)
		require.NoError(t, err)
		require.Len(t, e.Baseload.Samples, 25)
		assert.Equal(t, to, e.Baseload.End())
		assert.Equal(t, 0.6, e.Baseload.Samples[24].Value)
		assert.Len(t, e.ShiftableDemands, 0)
	})

	t.Run("Invalid band", func(t *testing.T) {
		bad := Templates{{Name: "bad", Demand: []Band{{HourStart: 5, HourEnd: 5}}}}
		_, err := bad.Expand(saturday, saturday.Add(time.Hour), time.UTC)
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})

	t.Run("Empty horizon", func(t *testing.T) {
		_, err := ts.Expand(saturday, saturday, time.UTC)
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestTemplatesYAML(t *testing.T) {
	var ts Templates
	err := yaml.Unmarshal([]byte(`
- name: everyday
  demand:
    - {hourStart: 0, hourEnd: 24, value: 0.4}
  importPrice:
    - {hourStart: 0, hourEnd: 7, value: 0.07}
    - {hourStart: 7, hourEnd: 24, value: 0.28}
  shiftableDemands:
    - name: washer
      type: laundry
      priority: high
      earliest: "09:00"
      latest: "17:00"
      profile:
        - {offset: 0s, kw: 2}
        - {offset: 90m, kw: 0}
`), &ts)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Len(t, ts[0].ImportPrice, 2)
	require.Len(t, ts[0].ShiftableDemands, 1)
	d := ts[0].ShiftableDemands[0]
	assert.Equal(t, types.PriorityHigh, d.Priority)
	assert.Equal(t, 90*time.Minute, d.Duration())
	assert.Equal(t, types.TimeOfDay(9*time.Hour), d.Earliest)
}
