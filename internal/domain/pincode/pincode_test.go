package pincode_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/unowhq/forma/internal/domain/pincode"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore_IssueAndConsume(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with a fixed generator", t, func() {
		store := pincode.NewMemoryStore(
			pincode.WithGenerator(func() (string, error) { return "4321", nil }),
		)

		Convey("When a PIN is issued and consumed with the right code", func() {
			code, err := store.Issue(ctx, "a@example.com")
			So(err, ShouldBeNil)
			So(code, ShouldEqual, "4321")

			err = store.Consume(ctx, "a@example.com", "4321")

			Convey("Then it verifies once", func() {
				So(err, ShouldBeNil)
			})

			Convey("And a second consume fails", func() {
				So(err, ShouldBeNil)
				So(store.Consume(ctx, "a@example.com", "4321"), ShouldWrap, pincode.ErrNoPIN)
			})
		})

		Convey("When the wrong code is supplied", func() {
			_, err := store.Issue(ctx, "a@example.com")
			So(err, ShouldBeNil)

			Convey("Then consume fails but the PIN survives", func() {
				So(store.Consume(ctx, "a@example.com", "0000"), ShouldWrap, pincode.ErrMismatch)
				So(store.Consume(ctx, "a@example.com", "4321"), ShouldBeNil)
			})
		})

		Convey("When nothing was issued", func() {
			Convey("Then consume reports no pending pin", func() {
				So(store.Consume(ctx, "nobody@example.com", "4321"), ShouldWrap, pincode.ErrNoPIN)
			})
		})

	})

	Convey("Given a generator that hands out increasing codes", t, func() {
		next := 1000
		store := pincode.NewMemoryStore(
			pincode.WithGenerator(func() (string, error) {
				next++
				return strconv.Itoa(next), nil
			}),
		)

		Convey("When a second PIN is issued for the same email", func() {
			_, err := store.Issue(ctx, "a@example.com")
			So(err, ShouldBeNil)
			second, err := store.Issue(ctx, "a@example.com")
			So(err, ShouldBeNil)

			Convey("Then only the latest code verifies", func() {
				So(store.Size(), ShouldEqual, 1)
				So(store.Consume(ctx, "a@example.com", second), ShouldBeNil)
			})
		})
	})

	Convey("Given a store with a controllable clock", t, func() {
		now := time.Now()
		clock := func() time.Time { return now }
		store := pincode.NewMemoryStore(
			pincode.WithTTL(10*time.Minute),
			pincode.WithClock(clock),
			pincode.WithGenerator(func() (string, error) { return "1234", nil }),
		)

		Convey("When the TTL passes before verification", func() {
			_, err := store.Issue(ctx, "a@example.com")
			So(err, ShouldBeNil)

			now = now.Add(11 * time.Minute)

			Convey("Then consume reports expiry and drops the entry", func() {
				So(store.Consume(ctx, "a@example.com", "1234"), ShouldWrap, pincode.ErrExpired)
				So(store.Consume(ctx, "a@example.com", "1234"), ShouldWrap, pincode.ErrNoPIN)
			})
		})
	})
}

func TestMemoryStore_RandomPINs(t *testing.T) {
	ctx := context.Background()

	Convey("Given the default generator", t, func() {
		store := pincode.NewMemoryStore()

		Convey("Then issued codes are four digits", func() {
			for i := 0; i < 50; i++ {
				code, err := store.Issue(ctx, "a@example.com")
				So(err, ShouldBeNil)
				So(len(code), ShouldEqual, 4)
				n, err := strconv.Atoi(code)
				So(err, ShouldBeNil)
				So(n, ShouldBeBetweenOrEqual, 1000, 9999)
			}
		})
	})
}
