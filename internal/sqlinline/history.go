package sqlinline

const QListPromptHistory = `--sql b8309625-d943-40d1-b379-db8627d44aff
select id, prompt, used_at
from prompt_history
order by used_at desc, id desc
limit $1
`

const QTouchPromptHistory = `--sql 341a571d-c42b-482c-9af6-ce2a67834d37
insert into prompt_history (id, prompt, used_at)
values ($1, $2, $3)
on conflict (prompt) do update set
    id = excluded.id,
    used_at = excluded.used_at
`

const QTrimPromptHistory = `--sql 974f99ac-b0ee-4a93-b962-a5fb8bc5f74f
delete from prompt_history
where id not in (
    select id from prompt_history
    order by used_at desc, id desc
    limit $1
)
`

const QClearPromptHistory = `--sql bfb2439b-b5dc-4d87-8f1d-81e07158edf8
delete from prompt_history
`
