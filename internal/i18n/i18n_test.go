package i18n_test

import (
	"testing"

	"github.com/minehaul/fleetsafety/internal/i18n"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPackResolution(t *testing.T) {
	Convey("Given the bundled language packs", t, func() {
		Convey("Then known languages should resolve their own strings", func() {
			So(i18n.For("en").T("risk_score"), ShouldEqual, "Risk Score")
			So(i18n.For("zh").T("risk_score"), ShouldEqual, "风险评分")
		})

		Convey("Then an unknown language should fall back to the default pack", func() {
			p := i18n.For("de")
			So(p.Lang(), ShouldEqual, i18n.DefaultLanguage)
			So(p.T("total_events"), ShouldEqual, "Total Events")
		})

		Convey("Then a key missing from every pack should resolve to itself", func() {
			So(i18n.For("zh").T("not_a_real_key"), ShouldEqual, "not_a_real_key")
		})
	})
}
