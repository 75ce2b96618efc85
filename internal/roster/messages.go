package roster

import (
	"fmt"
	"time"
)

// StudentDeletedMessage is shown while a student deletion can be undone.
func StudentDeletedMessage(name string) string {
	return fmt.Sprintf("Ученик %s удалён", name)
}

// RemovedFromGroupMessage is shown after a student leaves a group.
func RemovedFromGroupMessage(name, group string) string {
	return fmt.Sprintf("Ученик %s исключён из группы «%s»", name, group)
}

// GroupDeletedMessage is shown after a group is deleted.
func GroupDeletedMessage(name string) string {
	return fmt.Sprintf("Группа «%s» удалена", name)
}

// DeleteFailedMessage is shown when a deferred student deletion fails.
func DeleteFailedMessage(name string) string {
	return fmt.Sprintf("Не удалось удалить ученика %s", name)
}

func deleteStudentPrompt(name string, window time.Duration) Prompt {
	return Prompt{
		Title:       fmt.Sprintf("Удалить ученика %s?", name),
		Description: fmt.Sprintf("Удаление можно отменить в течение %s.", window.Round(time.Second)),
		Affirmative: "Удалить",
	}
}

func removeFromGroupPrompt(name, group string) Prompt {
	return Prompt{
		Title:       fmt.Sprintf("Исключить ученика %s из группы «%s»?", name, group),
		Description: "Ученик останется в списке без группы.",
		Affirmative: "Исключить",
	}
}

func deleteGroupPrompt(name string, members int) Prompt {
	return Prompt{
		Title:       fmt.Sprintf("Удалить группу «%s»?", name),
		Description: fmt.Sprintf("Учеников в группе: %d. Они останутся без группы.", members),
		Affirmative: "Удалить",
	}
}
