package theme

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minutesFor(t *testing.T, s string) int {
	t.Helper()
	m := ParseTimeStr(s)
	require.NotEqual(t, NoTime, m, "bad test time %q", s)
	return m
}

func TestResolveTheme_Totality(t *testing.T) {
	for _, bucket := range AllBuckets() {
		for _, cond := range AllConditions() {
			t.Run(fmt.Sprintf("%s/%s", bucket, cond), func(t *testing.T) {
				key := ResolveTheme(bucket, cond)
				assert.True(t, key.Valid(), "resolved key %q is not a known theme", key)
			})
		}
	}
}

func TestResolveTheme_Table(t *testing.T) {
	tests := []struct {
		bucket   TimeBucket
		cond     Condition
		expected Key
	}{
		{BucketDay, ConditionSnow, KeySnowDay},
		{BucketDusk, ConditionSnow, KeySnowDay},
		{BucketDawn, ConditionSnow, KeySnowDay},
		{BucketNight, ConditionSnow, KeySnowNight},
		{BucketDawn, ConditionStorm, KeyDayStorm},
		{BucketNight, ConditionStorm, KeyNightStorm},
		{BucketDusk, ConditionRain, KeyDayRain},
		{BucketNight, ConditionRain, KeyNightRain},
		{BucketDay, ConditionFog, KeyDayCloudy},
		{BucketDawn, ConditionFog, KeyDuskCloudy},
		{BucketDusk, ConditionCloudy, KeyDuskCloudy},
		{BucketNight, ConditionFog, KeyNightCloudy},
		{BucketDay, ConditionClear, KeyDayClear},
		{BucketDawn, ConditionClear, KeyDuskClear},
		{BucketDusk, ConditionClear, KeyDuskClear},
		{BucketNight, ConditionClear, KeyNightClear},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.bucket, tt.cond), func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveTheme(tt.bucket, tt.cond))
		})
	}
}

func TestResolveTheme_UnknownInputsFallBackToDayClear(t *testing.T) {
	assert.Equal(t, KeyDayClear, ResolveTheme(TimeBucket("noon"), Condition("sunny")))
	assert.Equal(t, KeyDayRain, ResolveTheme(TimeBucket(""), ConditionRain))
}

func TestResolveTheme_EveryKeyReachable(t *testing.T) {
	seen := map[Key]bool{}
	for _, bucket := range AllBuckets() {
		for _, cond := range AllConditions() {
			seen[ResolveTheme(bucket, cond)] = true
		}
	}

	for _, key := range AllKeys() {
		assert.True(t, seen[key], "key %q is never produced", key)
	}
	assert.Len(t, AllKeys(), 12)
}

func TestNormalizeCondition_Text(t *testing.T) {
	tests := []struct {
		text     string
		expected Condition
	}{
		{"thundery snow showers", ConditionStorm},
		{"Thunderstorm", ConditionStorm},
		{"Tropical STORM warning", ConditionStorm},
		{"Blowing snow", ConditionSnow},
		{"Blizzard", ConditionSnow},
		{"Light sleet showers", ConditionSnow},
		{"Ice pellets", ConditionSnow},
		{"Hail", ConditionSnow},
		{"Patchy rain possible", ConditionRain},
		{"Light drizzle", ConditionRain},
		{"Showers", ConditionRain},
		{"Freezing fog", ConditionFog},
		{"Mist", ConditionFog},
		{"Haze", ConditionFog},
		{"Partly cloudy", ConditionCloudy},
		{"Overcast", ConditionCloudy},
		{"Sunny", ConditionClear},
		{"", ConditionClear},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCondition(tt.text, NoCode))
		})
	}
}

func TestNormalizeCondition_TextBeatsCode(t *testing.T) {
	// 1276 would be storm on its own
	assert.Equal(t, ConditionCloudy, NormalizeCondition("Overcast", 1276))
	assert.Equal(t, ConditionFog, NormalizeCondition("mist", 1003))
}

func TestNormalizeCondition_CodeBands(t *testing.T) {
	tests := []struct {
		code     int
		expected Condition
	}{
		{1000, ConditionClear},
		{1003, ConditionCloudy},
		{1006, ConditionCloudy},
		{1009, ConditionCloudy},
		{1010, ConditionClear},
		{1113, ConditionClear},
		{1114, ConditionSnow},
		{1197, ConditionSnow},
		{1198, ConditionRain},
		{1272, ConditionRain},
		{1273, ConditionStorm},
		{1282, ConditionStorm},
		{NoCode, ConditionClear},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCondition("", tt.code))
		})
	}
}

func TestRules_Order(t *testing.T) {
	rules := Rules()
	require.Len(t, rules, 5)

	order := make([]Condition, 0, len(rules))
	for _, r := range rules {
		order = append(order, r.Condition)
	}
	assert.Equal(t, []Condition{ConditionStorm, ConditionSnow, ConditionRain, ConditionFog, ConditionCloudy}, order)

	// Mutating the returned slice must not affect normalization
	rules[0].Keywords = nil
	assert.Equal(t, ConditionStorm, NormalizeCondition("thunder", NoCode))
}

func TestRule_Matches(t *testing.T) {
	r := Rule{Keywords: []string{"fog", "mist"}, Condition: ConditionFog}
	assert.True(t, r.Matches("freezing fog"))
	assert.True(t, r.Matches("misty"))
	assert.False(t, r.Matches("clear"))
}

func TestClassifyTime_Fallback(t *testing.T) {
	tests := []struct {
		clock    string
		expected TimeBucket
	}{
		{"06:30", BucketDawn},
		{"05:00", BucketDawn},
		{"07:59", BucketDawn},
		{"08:00", BucketDay},
		{"12:00", BucketDay},
		{"16:59", BucketDay},
		{"17:00", BucketDusk},
		{"18:30", BucketDusk},
		{"19:59", BucketDusk},
		{"20:00", BucketNight},
		{"23:00", BucketNight},
		{"00:00", BucketNight},
		{"04:59", BucketNight},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyTime(minutesFor(t, tt.clock), nil))
		})
	}
}

func TestClassifyTime_SolarWindows(t *testing.T) {
	solar := &SolarCycle{SunriseMinutes: 360, SunsetMinutes: 1080}

	tests := []struct {
		minutes  int
		expected TimeBucket
	}{
		{314, BucketNight},
		{315, BucketDawn},
		{360, BucketDawn},
		{420, BucketDawn},
		{421, BucketDay},
		{1019, BucketDay},
		{1020, BucketDusk},
		{1080, BucketDusk},
		{1125, BucketDusk},
		{1126, BucketNight},
		{0, BucketNight},
		{1439, BucketNight},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.minutes), func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyTime(tt.minutes, solar))
		})
	}
}

func TestClassifyTime_DawnTakesPrecedenceOverDusk(t *testing.T) {
	// Short winter day: dawn and dusk windows overlap
	solar := &SolarCycle{SunriseMinutes: 600, SunsetMinutes: 700}
	assert.Equal(t, BucketDawn, ClassifyTime(650, solar))
	assert.Equal(t, BucketDusk, ClassifyTime(661, solar))
	assert.Equal(t, BucketNight, ClassifyTime(746, solar))
}

func TestClassifyTime_NoWraparoundNearMidnight(t *testing.T) {
	// Sunrise at 00:20 puts dawn start at -25; late evening is not pulled into dawn
	solar := &SolarCycle{SunriseMinutes: 20, SunsetMinutes: 1000}
	assert.Equal(t, BucketDawn, ClassifyTime(0, solar))
	assert.Equal(t, BucketNight, ClassifyTime(1430, solar))
}

func TestMinutesOf(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	ts := time.Date(2025, 6, 1, 18, 30, 0, 0, loc)
	assert.Equal(t, 18*60+30, MinutesOf(ts))
}

func TestResolveFixed(t *testing.T) {
	in := Input{Minutes: 5 * 60, Text: "Clear", Sunrise: "06:00 AM", Sunset: "06:00 PM"}

	fixed := ResolveFixed(in)
	assert.Equal(t, BucketDawn, fixed.Bucket)
	assert.Equal(t, KeyDuskClear, fixed.Theme)
	assert.Equal(t, SolarFixed, fixed.SolarSource)
	assert.Equal(t, SolarCycle{}, fixed.Solar)

	// The same minute is still night against a 06:00 sunrise
	assert.Equal(t, BucketNight, Resolve(in, DefaultSolarCycle()).Bucket)
}

func TestParseTimeStr(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"06:00 AM", 360},
		{"06:00 PM", 1080},
		{"12:00 AM", 0},
		{"12:00 PM", 720},
		{"12:30 am", 30},
		{"7:45pm", 1185},
		{"  05:12 Am  ", 312},
		{"18:30", 1110},
		{"00:00", 0},
		{"23:59", 1439},
		{"garbage", NoTime},
		{"", NoTime},
		{"6 PM", NoTime},
		{"06:0", NoTime},
		{"24:00", NoTime},
		{"10:75", NoTime},
		{"06:00 XM", NoTime},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTimeStr(tt.input))
		})
	}
}

func TestSolarFromStrings(t *testing.T) {
	fallback := DefaultSolarCycle()

	cycle, ok := SolarFromStrings("05:30 AM", "09:15 PM", fallback)
	assert.True(t, ok)
	assert.Equal(t, SolarCycle{SunriseMinutes: 330, SunsetMinutes: 1275}, cycle)

	cycle, ok = SolarFromStrings("garbage", "09:15 PM", fallback)
	assert.False(t, ok)
	assert.Equal(t, fallback, cycle)

	cycle, ok = SolarFromStrings("08:00 PM", "06:00 AM", fallback)
	assert.False(t, ok)
	assert.Equal(t, fallback, cycle)
}

func TestDefaultSolarCycle(t *testing.T) {
	d := DefaultSolarCycle()
	assert.Equal(t, 360, d.SunriseMinutes)
	assert.Equal(t, 1080, d.SunsetMinutes)
	assert.True(t, d.Valid())

	// Callers get their own copy
	d.SunriseMinutes = 0
	assert.Equal(t, 360, DefaultSolarCycle().SunriseMinutes)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		in         Input
		wantTheme  Key
		wantBucket TimeBucket
		wantSource SolarSource
	}{
		{
			name:       "provider solar data refines dusk",
			in:         Input{Minutes: minutesFor(t, "20:30"), Text: "Clear", Sunrise: "05:00 AM", Sunset: "09:00 PM"},
			wantTheme:  KeyDuskClear,
			wantBucket: BucketDusk,
			wantSource: SolarProvider,
		},
		{
			name:       "unparsable solar data uses fallback",
			in:         Input{Minutes: minutesFor(t, "20:30"), Text: "Clear", Sunrise: "n/a", Sunset: "n/a"},
			wantTheme:  KeyNightClear,
			wantBucket: BucketNight,
			wantSource: SolarDefault,
		},
		{
			name:       "code only",
			in:         Input{Minutes: minutesFor(t, "13:00"), Code: 1195},
			wantTheme:  KeySnowDay,
			wantBucket: BucketDay,
			wantSource: SolarDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.in, DefaultSolarCycle())
			assert.Equal(t, tt.wantTheme, res.Theme)
			assert.Equal(t, tt.wantBucket, res.Bucket)
			assert.Equal(t, tt.wantSource, res.SolarSource)
		})
	}
}

func TestPureFunctionsAreIdempotent(t *testing.T) {
	solar := &SolarCycle{SunriseMinutes: 400, SunsetMinutes: 1000}

	assert.Equal(t, ClassifyTime(700, solar), ClassifyTime(700, solar))
	assert.Equal(t, ClassifyTime(700, nil), ClassifyTime(700, nil))
	assert.Equal(t, NormalizeCondition("Light rain", 1183), NormalizeCondition("Light rain", 1183))
	assert.Equal(t, ResolveTheme(BucketDusk, ConditionFog), ResolveTheme(BucketDusk, ConditionFog))
	assert.Equal(t, ParseTimeStr("06:00 PM"), ParseTimeStr("06:00 PM"))

	in := Input{Minutes: 500, Text: "overcast", Sunrise: "06:00 AM", Sunset: "06:00 PM"}
	assert.Equal(t, Resolve(in, DefaultSolarCycle()), Resolve(in, DefaultSolarCycle()))
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "00:00", FormatMinutes(0))
	assert.Equal(t, "06:05", FormatMinutes(365))
	assert.Equal(t, "23:59", FormatMinutes(1439))
	assert.Equal(t, "-1", FormatMinutes(NoTime))
	assert.Equal(t, "1440", FormatMinutes(MinutesPerDay))
}
