package models

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestUploadedClip(t *testing.T) {
	Convey("Given raw clip bytes", t, func() {
		data := []byte("RIFF....WAVE")
		clip := NewUploadedClip("voice.wav", data)

		Convey("The clip gets an id, size and checksum", func() {
			So(clip.ID, ShouldNotBeEmpty)
			So(clip.Size, ShouldEqual, len(data))
			So(clip.Checksum, ShouldEqual, fmt.Sprintf("%x", sha256.Sum256(data)))
		})

		Convey("Two clips never share an id", func() {
			So(NewUploadedClip("voice.wav", data).ID, ShouldNotEqual, clip.ID)
		})

		Convey("An analysis starts pending and can fail", func() {
			a := NewAnalysis(clip)
			So(a.ID, ShouldEqual, clip.ID)
			So(a.Status, ShouldEqual, StatusPending)

			a.Fail(errors.New("decode"))
			So(a.Status, ShouldEqual, StatusFailed)
			So(a.Error, ShouldEqual, "decode")
			So(a.ProcessedAt.IsZero(), ShouldBeFalse)
		})
	})
}

func TestCategories(t *testing.T) {
	Convey("Given the fixed categories", t, func() {
		So(Categories, ShouldResemble, []Category{"emotion", "gender", "energy", "stress"})

		Convey("Each has a title, colour and non-empty label set", func() {
			for _, c := range Categories {
				So(c.Title(), ShouldNotBeEmpty)
				So(c.Color().A, ShouldEqual, 255)
				So(len(c.Labels()), ShouldBeGreaterThanOrEqualTo, 2)
			}
			So(CategoryEmotion.Labels(), ShouldResemble, []string{"Happy", "Sad", "Angry", "Neutral", "Fearful", "Surprised"})
			So(CategoryGender.Labels(), ShouldResemble, []string{"Male", "Female"})
		})

		Convey("Labels returns a copy", func() {
			l := CategoryEnergy.Labels()
			l[0] = "Mutated"
			So(CategoryEnergy.Valid("Low"), ShouldBeTrue)
			So(CategoryEnergy.Valid("Mutated"), ShouldBeFalse)
		})
	})
}

func TestPredictionResult(t *testing.T) {
	Convey("Given a prediction", t, func() {
		var p PredictionResult
		p.Set(CategoryEmotion, "Sad")
		p.Set(CategoryGender, "Female")
		p.Set(CategoryEnergy, "High")
		p.Set(CategoryStress, "Relaxed")

		So(p.Label(CategoryEmotion), ShouldEqual, "Sad")
		So(p.Validate(), ShouldBeNil)

		Convey("A label outside its set fails validation", func() {
			p.Set(CategoryStress, "Calm")
			So(p.Validate(), ShouldNotBeNil)
		})
	})
}
