package scraper

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"dividend-backend/internal/finance"

	"github.com/stretchr/testify/require"
)

// randomSwitch returns a function that outputs index i with probability weights[i] / sum(weights).
func randomSwitch(weights ...int) func(rndm *rand.Rand) int {
	var sum int
	for _, w := range weights {
		sum += w
	}
	return func(rndm *rand.Rand) int {
		value := rndm.Intn(sum)
		threshold := 0
		for i, w := range weights {
			threshold += w
			if value < threshold {
				return i
			}
		}
		panic(fmt.Sprintf("random value out of bounds: %d", value))
	}
}

func randomLowercase(rndm *rand.Rand, length int) string {
	str := make([]rune, length)
	for i := range str {
		str[i] = 'a' + rune(rndm.Intn(26))
	}
	return string(str)
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

const (
	rowValid = iota
	rowUnknownMonth
	rowDayOutOfRange
)

func TestParseRowRandomized(t *testing.T) {
	rndm := rand.New(rand.NewSource(20210315))
	kind := randomSwitch(6, 2, 2)
	parser := NewRowParser(DefaultMonthTable(), "")

	for i := 0; i < 2000; i++ {
		year := 1990 + rndm.Intn(40)
		month := time.Month(1 + rndm.Intn(12))
		monthName := month.String()
		if rndm.Intn(2) == 0 {
			monthName = monthName[:3]
		}
		amount := fmt.Sprintf("%d.%02d", rndm.Intn(10), rndm.Intn(100))

		switch kind(rndm) {
		case rowValid:
			day := 1 + rndm.Intn(daysIn(month, year))
			row := fmt.Sprintf("%s %d, %d %s Dividend", monthName, day, year, amount)

			dividend, err := parser.ParseRow(row)
			require.NoError(t, err, row)
			require.Equal(t, finance.Dividend{
				Date:   time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
				Amount: amount,
			}, dividend, row)
		case rowUnknownMonth:
			row := fmt.Sprintf("%s 1, %d %s Dividend", randomLowercase(rndm, 3), year, amount)

			_, err := parser.ParseRow(row)
			var monthErr *InvalidMonthError
			require.True(t, errors.As(err, &monthErr), row)
		case rowDayOutOfRange:
			row := fmt.Sprintf("%s %d, %d %s Dividend", monthName, daysIn(month, year)+1, year, amount)

			_, err := parser.ParseRow(row)
			var rowErr *RowError
			require.True(t, errors.As(err, &rowErr), row)
		}
	}
}
