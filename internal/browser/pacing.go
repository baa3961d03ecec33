package browser

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDelay pauses for a random time between min and max milliseconds.
func RandomDelay(min, max int) {
	if min >= max {
		time.Sleep(time.Duration(min) * time.Millisecond)
		return
	}
	time.Sleep(time.Duration(rand.Intn(max-min)+min) * time.Millisecond)
}

// ScrollBy scrolls the page down by a random amount within [min, max)
// pixels, the way a reader would.
func ScrollBy(page playwright.Page, min, max int) error {
	amount := min
	if max > min {
		amount += rand.Intn(max - min)
	}
	_, err := page.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", amount))
	return err
}
