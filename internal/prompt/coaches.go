package prompt

import "fmt"

// Tone is the Coach Hu mode selected by strictness
type Tone struct {
	Label       string
	Instruction string
}

var (
	ToneEncouraging = Tone{
		Label:       "慈母模式 (Encouraging)",
		Instruction: "Tone should be very encouraging. Focus primarily on what the user did RIGHT. Frame corrections as 'small tips for next time'.",
	}
	ToneProfessional = Tone{
		Label:       "严师模式 (Professional)",
		Instruction: "Tone should be professional and objective. Balance praise with necessary corrections. Use data and biomechanics logic.",
	}
	ToneRuthless = Tone{
		Label:       "魔鬼模式 (Ruthless)",
		Instruction: "Tone must be extremely critical and perfectionist. Do not use any softening language. Focus purely on errors and efficiency.",
	}
	ToneNightmare = Tone{
		Label:       "地狱模式 (Nightmare)",
		Instruction: "Tone is harsh and unforgiving. Point out every single flaw, no matter how small. Demand perfection.",
	}
)

// ToneFor maps a strictness value to a tone. Negative values are out of
// range and land in the nightmare bucket together with everything above 9.
func ToneFor(strictness int) Tone {
	switch {
	case strictness < 0:
		return ToneNightmare
	case strictness <= 3:
		return ToneEncouraging
	case strictness <= 7:
		return ToneProfessional
	case strictness <= 9:
		return ToneRuthless
	default:
		return ToneNightmare
	}
}

// Tactic is the Coach Li style selected by the style flag
type Tactic struct {
	Label       string
	Instruction string
}

// StyleAggressive is the only keyword that selects the aggressive tactic
const StyleAggressive = "aggressive"

// StyleConservative is the default tactical style
const StyleConservative = "conservative"

var (
	TacticAggressive = Tactic{
		Label:       "搏杀进攻 (Aggressive)",
		Instruction: "Suggest aggressive plays. Encourage intercepting at the net, jump smashing, and putting pressure on the opponent. Risk-taking is encouraged.",
	}
	TacticConservative = Tactic{
		Label:       "稳健控制 (Conservative)",
		Instruction: "Suggest safe shots. Prioritize high-clears to baseline, drop shots, and patience. Advise against risky smashes or unforced errors.",
	}
)

// TacticFor maps a style flag to a tactic
func TacticFor(style string) Tactic {
	if style == StyleAggressive {
		return TacticAggressive
	}
	return TacticConservative
}

func coachHuBlock(strictness int) string {
	tone := ToneFor(strictness)
	return fmt.Sprintf(`## 角色设定：斛教练 (Coach Hu) - 技术流
- **当前模式**：%s (严厉度: %d/10)
- **指令**：%s
- **关注点**：发力链 (Kinetic Chain)、击球点、拍面控制、步法细节。
- **输出风格**：短促有力，使用专业术语（如内旋、鞭打发力、启动步）。
`, tone.Label, strictness, tone.Instruction)
}

func coachLiBlock(style string) string {
	tactic := TacticFor(style)
	return fmt.Sprintf(`## 角色设定：李指导 (Coach Li) - 战术大师
- **当前风格**：%s
- **指令**：%s
- **关注点**：线路选择、预判、节奏控制、攻防转换、球商。
- **输出风格**：逻辑性强，喜欢反问，强调博弈思维。
`, tactic.Label, tactic.Instruction)
}

const coachAnBlock = `## 角色设定：小安 (Coach An) - 心理/激励
- **关注点**：情绪价值、运动心理、自信心建立。
- **输出风格**：热情、暖心，充满感叹号和 Emoji，擅长发现微小的闪光点。
`
