package gateway

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ActivityKind — вид активности в статусе. Нулевое значение — Playing,
// он же используется при неизвестном значении из конфига.
type ActivityKind int

const (
	ActivityPlaying ActivityKind = iota
	ActivityWatching
	ActivityListening
	ActivityStreaming
	ActivityCompeting
)

// ActivityKinds — все допустимые значения в порядке объявления.
var ActivityKinds = []ActivityKind{
	ActivityPlaying,
	ActivityWatching,
	ActivityListening,
	ActivityStreaming,
	ActivityCompeting,
}

// ParseActivityKind разбирает значение из конфига (регистр не важен).
// При неизвестном значении возвращает ActivityPlaying и false.
func ParseActivityKind(s string) (ActivityKind, bool) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, k := range ActivityKinds {
		if k.String() == want {
			return k, true
		}
	}
	return ActivityPlaying, false
}

func (k ActivityKind) String() string {
	switch k {
	case ActivityWatching:
		return "watching"
	case ActivityListening:
		return "listening"
	case ActivityStreaming:
		return "streaming"
	case ActivityCompeting:
		return "competing"
	default:
		return "playing"
	}
}

// Label — как Discord показывает этот вид активности в клиенте.
func (k ActivityKind) Label() string {
	switch k {
	case ActivityWatching:
		return "Смотрит"
	case ActivityListening:
		return "Слушает"
	case ActivityStreaming:
		return "Стримит"
	case ActivityCompeting:
		return "Соревнуется в"
	default:
		return "Играет в"
	}
}

func (k ActivityKind) discordType() discordgo.ActivityType {
	switch k {
	case ActivityWatching:
		return discordgo.ActivityTypeWatching
	case ActivityListening:
		return discordgo.ActivityTypeListening
	case ActivityStreaming:
		return discordgo.ActivityTypeStreaming
	case ActivityCompeting:
		return discordgo.ActivityTypeCompeting
	default:
		return discordgo.ActivityTypeGame
	}
}

// Activity — то, что показывается рядом с индикатором "в сети".
// URL используется только для ActivityStreaming.
type Activity struct {
	Kind ActivityKind
	Name string
	URL  string
}

func (a *Activity) String() string {
	if a == nil {
		return "<none>"
	}
	return a.Kind.Label() + " " + `"` + a.Name + `"`
}

func (a *Activity) statusData() discordgo.UpdateStatusData {
	usd := discordgo.UpdateStatusData{
		Status:     string(discordgo.StatusOnline),
		Activities: []*discordgo.Activity{},
	}
	if a == nil {
		return usd
	}
	da := &discordgo.Activity{Name: a.Name, Type: a.Kind.discordType()}
	if a.Kind == ActivityStreaming {
		da.URL = a.URL
	}
	usd.Activities = append(usd.Activities, da)
	return usd
}
