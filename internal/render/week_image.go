// Package render рисует недельную сетку расписания в PNG
package render

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/Freeeeeet/activity_search/internal/model"
	"github.com/Freeeeeet/activity_search/internal/weektime"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	dayPaddingX      = 8
	minBlockHeight   = 8.0
	blockRadius      = 6.0
	shadowOffset     = 3.0
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultStartHour = 8
	defaultEndHour   = 20
)

// Цветовая схема
var (
	bgColor         = color.RGBA{245, 246, 248, 255}
	textColor       = color.RGBA{80, 85, 90, 220}
	hourLabelColor  = color.RGBA{110, 115, 120, 200}
	hourLineColor   = color.NRGBA{150, 150, 150, 255}
	evenDayColor    = color.NRGBA{240, 240, 240, 255}
	oddDayColor     = color.NRGBA{220, 220, 220, 255}
	blockColor      = color.RGBA{133, 193, 85, 220}
	carryBlockColor = color.RGBA{170, 210, 140, 200} // продолжение окна после полуночи
	blockTextColor  = color.RGBA{20, 24, 28, 230}
	blockShadow     = color.RGBA{0, 0, 0, 20}
)

// Колонки идут с понедельника, как в привычной сетке недели
var columnDays = [weektime.DaysPerWeek]int{1, 2, 3, 4, 5, 6, 0}

var dayNames = [weektime.DaysPerWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// block - прямоугольник на сетке в пределах одного дня, минуты [start, end)
type block struct {
	day   int
	start int
	end   int
	label string
	carry bool
}

type hourRange struct {
	start int
	end   int
	total int
}

// WeekImage рисует локальное расписание как недельную сетку.
// Окно через полночь рисуется двумя блоками: до конца дня и с начала следующего.
func WeekImage(schedule *model.LocalSchedule, title string) ([]byte, error) {
	blocks, err := splitBlocks(schedule.WeeklyEntries)
	if err != nil {
		return nil, err
	}
	hours := calculateHourRange(blocks)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dayWidth := (imageWidth - leftLabelsWidth) / weektime.DaysPerWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, title, schedule.Timezone)
	drawHourLabels(dc, hours, cellHeight)

	for col, day := range columnDays {
		x := float64(leftLabelsWidth + col*dayWidth)
		drawDayColumn(dc, x, col, day, dayWidth, dayHeight, hours, cellHeight)
		for _, b := range blocks {
			if b.day == day {
				drawBlock(dc, b, x, dayWidth, hours, cellHeight)
			}
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// splitBlocks переводит окна в блоки сетки
func splitBlocks(entries []model.LocalEntry) ([]block, error) {
	blocks := make([]block, 0, len(entries))
	for i, e := range entries {
		start, err := weektime.ParseClock(e.StartTime)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		end, err := weektime.ParseClock(e.EndTime)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		label := e.StartTime + "-" + e.EndTime
		if end > start {
			blocks = append(blocks, block{day: e.DayOfWeek, start: start, end: end, label: label})
			continue
		}

		blocks = append(blocks, block{day: e.DayOfWeek, start: start, end: weektime.MinutesPerDay, label: label})
		if end > 0 {
			next := (e.DayOfWeek + 1) % weektime.DaysPerWeek
			blocks = append(blocks, block{day: next, start: 0, end: end, label: label, carry: true})
		}
	}
	return blocks, nil
}

// calculateHourRange определяет диапазон часов для отображения
func calculateHourRange(blocks []block) hourRange {
	minHour, maxHour := 24, 0
	for _, b := range blocks {
		startH := b.start / 60
		endH := (b.end + 59) / 60
		if startH < minHour {
			minHour = startH
		}
		if endH > maxHour {
			maxHour = endH
		}
	}
	if minHour == 24 {
		minHour, maxHour = defaultStartHour, defaultEndHour
	}

	start := max(minHour-hourPaddingTop, 0)
	end := min(maxHour+hourPaddingBot, 24)
	return hourRange{start: start, end: end, total: end - start}
}

func drawHeader(dc *gg.Context, title, tz string) {
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/4, 0, 0.5)
	dc.SetColor(hourLabelColor)
	dc.DrawStringAnchored(tz, float64(imageWidth-10), float64(headerHeight)/4, 1, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	dc.SetColor(hourLabelColor)
	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(weektime.FormatClock((hours.start+i)%24*60), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayColumn(dc *gg.Context, x float64, col, day, dayWidth, dayHeight int, hours hourRange, cellHeight float64) {
	if col%2 == 0 {
		dc.SetColor(evenDayColor)
	} else {
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, headerHeight, float64(dayWidth), float64(dayHeight))
	dc.Fill()

	dc.SetColor(textColor)
	dc.DrawStringAnchored(dayNames[day], x+float64(dayWidth)/2, float64(headerHeight)-20, 0.5, 0.5)

	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawLine(x, y, x+float64(dayWidth), y)
		dc.Stroke()
	}
}

func drawBlock(dc *gg.Context, b block, x float64, dayWidth int, hours hourRange, cellHeight float64) {
	top := float64(headerHeight) + (float64(b.start)/60-float64(hours.start))*cellHeight
	height := float64(b.end-b.start) / 60 * cellHeight
	if height < minBlockHeight {
		height = minBlockHeight
	}
	width := float64(dayWidth) - float64(dayPaddingX*2)

	fill := blockColor
	if b.carry {
		fill = carryBlockColor
	}

	dc.SetColor(blockShadow)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, top+2+shadowOffset, width, height-4, blockRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, top+2, width, height-4, blockRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, top+2, width, height-4, blockRadius)
	dc.Stroke()

	if height > 20 {
		dc.SetColor(blockTextColor)
		dc.DrawStringAnchored(b.label, x+dayPaddingX+8, top+16, 0, 0)
	}
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}
